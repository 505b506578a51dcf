package domain

import "time"

// Account represents a registered user and their referral state.
// CredentialHash never leaves the process; responses use the View
// projections below.
type Account struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	CredentialHash string    `json:"-"`
	ReferralCode   string    `json:"referral_code"`
	Balance        int64     `json:"balance"`
	HasRedeemed    bool      `json:"has_redeemed"`
	RedeemedFrom   string    `json:"redeemed_from"`
	CreatedAt      time.Time `json:"created_at"`
}

// View is the public projection of an Account returned by registration
// and login.
type View struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
	Balance      int64  `json:"balance"`
	HasRedeemed  bool   `json:"has_redeemed"`
	RedeemedFrom string `json:"redeemed_from"`
}

// Profile is the View plus the creation timestamp, returned by profile
// lookups.
type Profile struct {
	View
	CreatedAt time.Time `json:"created_at"`
}

// ViewOf projects an account into its public shape.
func ViewOf(a *Account) View {
	return View{
		Email:        a.Email,
		Name:         a.Name,
		ReferralCode: a.ReferralCode,
		Balance:      a.Balance,
		HasRedeemed:  a.HasRedeemed,
		RedeemedFrom: a.RedeemedFrom,
	}
}

// ProfileOf projects an account into its profile shape.
func ProfileOf(a *Account) Profile {
	return Profile{View: ViewOf(a), CreatedAt: a.CreatedAt}
}

// RewardConfig is the single mutable configuration record. Exactly one
// instance exists in the store; the applier only reads it.
type RewardConfig struct {
	RewardCoins int64     `json:"reward_coins"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultRewardCoins is credited per redemption when no RewardConfig
// record exists yet. A configured value of 0 is honored as 0; only an
// absent record falls back to this default.
const DefaultRewardCoins = 50

// RegisterRequest is the DTO for incoming registration requests.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the DTO for credential verification requests.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ApplyReferralRequest is the DTO for redemption requests.
type ApplyReferralRequest struct {
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
}

// ApplyReferralResponse reports the applicant's state after a
// successful redemption.
type ApplyReferralResponse struct {
	Balance      int64  `json:"balance"`
	HasRedeemed  bool   `json:"has_redeemed"`
	RedeemedFrom string `json:"redeemed_from"`
}
