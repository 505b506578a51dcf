// Package store holds the durable-store contract and its Postgres and
// in-memory implementations. The store, not the application, is the
// arbiter of uniqueness and of the single-redemption guard.
package store

import (
	"context"
	"errors"

	"github.com/punchamoorthee/referralops/internal/domain"
)

// Insert collisions are reported as tagged errors so callers can
// branch on which unique key failed.
var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateCode  = errors.New("referral code already in use")
	ErrNotFound       = errors.New("account not found")
)

// Store is the durable keyed store the services run against.
type Store interface {
	// InsertAccount atomically creates an account. It returns
	// ErrDuplicateEmail or ErrDuplicateCode when the corresponding
	// unique constraint rejects the row.
	InsertAccount(ctx context.Context, a *domain.Account) error

	// GetAccountByEmail looks up an account by its normalized email.
	// Returns ErrNotFound if absent.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetAccountByCode looks up the account owning a referral code.
	// Returns ErrNotFound if absent.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// CreditReferral performs the single atomic conditional update of a
	// redemption: balance += reward, hasRedeemed = true, redeemedFrom =
	// from, written only if hasRedeemed is still false at write time.
	// ok reports whether the write landed; ok == false means the
	// account had already redeemed (possibly concurrently). The account
	// must exist; absence is ErrNotFound.
	CreditReferral(ctx context.Context, email string, reward int64, from string) (updated *domain.Account, ok bool, err error)

	// RewardCoins reads the singleton reward configuration. present is
	// false when no record exists yet; callers fall back to
	// domain.DefaultRewardCoins.
	RewardCoins(ctx context.Context) (amount int64, present bool, err error)
}
