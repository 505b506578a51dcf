package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/punchamoorthee/referralops/internal/domain"
	"github.com/punchamoorthee/referralops/internal/store"
)

// ApplyReferral redeems a referral code for the applicant, exactly
// once per account. The read-side hasRedeemed check only short-circuits
// the common case; the store's conditional update is what actually
// closes the race between two concurrent redemptions.
func (s *Service) ApplyReferral(ctx context.Context, req domain.ApplyReferralRequest) (domain.ApplyReferralResponse, error) {
	email := normalizeEmail(req.Email)
	code := normalizeCode(req.ReferralCode)

	if email == "" || code == "" {
		return domain.ApplyReferralResponse{}, fmt.Errorf("%w: email and referral code are required", ErrInvalidInput)
	}
	if !validEmail(email) {
		return domain.ApplyReferralResponse{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	applicant, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ApplyReferralResponse{}, ErrNotFound
		}
		s.log.WithError(err).WithField("email", email).Error("applicant lookup failed")
		return domain.ApplyReferralResponse{}, fmt.Errorf("looking up applicant: %w", err)
	}
	if applicant.HasRedeemed {
		return domain.ApplyReferralResponse{}, ErrAlreadyRedeemed
	}

	owner, err := s.store.GetAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ApplyReferralResponse{}, ErrInvalidCode
		}
		s.log.WithError(err).WithField("code", code).Error("code owner lookup failed")
		return domain.ApplyReferralResponse{}, fmt.Errorf("looking up code owner: %w", err)
	}
	if owner.Email == applicant.Email {
		return domain.ApplyReferralResponse{}, ErrSelfReferral
	}

	reward, err := s.rewardCoins(ctx)
	if err != nil {
		return domain.ApplyReferralResponse{}, err
	}

	redeemedFrom := fmt.Sprintf("%s (%s)", owner.ReferralCode, owner.Email)
	updated, ok, err := s.store.CreditReferral(ctx, applicant.Email, reward, redeemedFrom)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ApplyReferralResponse{}, ErrNotFound
		}
		s.log.WithError(err).WithField("email", email).Error("referral credit failed")
		return domain.ApplyReferralResponse{}, fmt.Errorf("crediting referral: %w", err)
	}
	if !ok {
		// Lost the write race to a concurrent redemption. The loser
		// sees the same error as a plain repeat attempt.
		return domain.ApplyReferralResponse{}, ErrAlreadyRedeemed
	}

	return domain.ApplyReferralResponse{
		Balance:      updated.Balance,
		HasRedeemed:  updated.HasRedeemed,
		RedeemedFrom: updated.RedeemedFrom,
	}, nil
}

// rewardCoins reads the singleton reward configuration. An absent
// record falls back to the default; a configured zero is honored as
// zero.
func (s *Service) rewardCoins(ctx context.Context) (int64, error) {
	amount, present, err := s.store.RewardCoins(ctx)
	if err != nil {
		s.log.WithError(err).Error("reward config read failed")
		return 0, fmt.Errorf("reading reward config: %w", err)
	}
	if !present {
		return domain.DefaultRewardCoins, nil
	}
	return amount, nil
}

// Profile returns the public projection plus creation time.
func (s *Service) Profile(ctx context.Context, rawEmail string) (domain.Profile, error) {
	email := normalizeEmail(rawEmail)
	if !validEmail(email) {
		return domain.Profile{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		s.log.WithError(err).WithField("email", email).Error("profile lookup failed")
		return domain.Profile{}, fmt.Errorf("looking up profile: %w", err)
	}
	return domain.ProfileOf(account), nil
}
