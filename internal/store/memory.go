package store

import (
	"context"
	"sync"
	"time"

	"github.com/punchamoorthee/referralops/internal/domain"
)

// Memory is an in-process Store used by tests and local development.
// A single mutex makes every operation atomic, matching the
// per-statement atomicity the Postgres implementation gets from the
// database.
type Memory struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Account
	byCode  map[string]string // referral code -> email
	reward  *int64
}

func NewMemory() *Memory {
	return &Memory{
		byEmail: make(map[string]*domain.Account),
		byCode:  make(map[string]string),
	}
}

// SetRewardCoins installs the singleton reward record. Passing a value
// simulates the seeder having run; a fresh Memory has no record.
func (m *Memory) SetRewardCoins(amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reward = &amount
}

func (m *Memory) InsertAccount(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[a.Email]; exists {
		return ErrDuplicateEmail
	}
	if _, exists := m.byCode[a.ReferralCode]; exists {
		return ErrDuplicateCode
	}

	a.CreatedAt = time.Now().UTC()
	stored := *a
	m.byEmail[a.Email] = &stored
	m.byCode[a.ReferralCode] = a.Email
	return nil
}

func (m *Memory) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *Memory) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m.byEmail[email]
	return &copied, nil
}

func (m *Memory) CreditReferral(ctx context.Context, email string, reward int64, from string) (*domain.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byEmail[email]
	if !ok {
		return nil, false, ErrNotFound
	}
	if a.HasRedeemed {
		return nil, false, nil
	}

	a.Balance += reward
	a.HasRedeemed = true
	a.RedeemedFrom = from
	copied := *a
	return &copied, true, nil
}

func (m *Memory) RewardCoins(ctx context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reward == nil {
		return 0, false, nil
	}
	return *m.reward, true, nil
}
