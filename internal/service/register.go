package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/punchamoorthee/referralops/internal/domain"
	"github.com/punchamoorthee/referralops/internal/refcode"
	"github.com/punchamoorthee/referralops/internal/store"
)

// Register creates an account with a store-unique referral code.
// Referral-code collisions are the only retried failure: the store is
// the arbiter of uniqueness, and the loop simply draws a fresh
// candidate when it loses the race.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.View, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if name == "" {
		return domain.View{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.Password == "" {
		return domain.View{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if !validEmail(email) {
		return domain.View{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	// Pre-check for a friendlier error; the insert below still guards
	// against registrations racing on the same email.
	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return domain.View{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.WithError(err).WithField("email", email).Error("registration pre-check failed")
		return domain.View{}, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.WithError(err).Error("password hashing failed")
		return domain.View{}, fmt.Errorf("hashing password: %w", err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		account := &domain.Account{
			Email:          email,
			Name:           name,
			CredentialHash: hash,
			ReferralCode:   s.gen(refcode.Length),
		}

		err := s.store.InsertAccount(ctx, account)
		switch {
		case err == nil:
			return domain.ViewOf(account), nil
		case errors.Is(err, store.ErrDuplicateCode):
			continue
		case errors.Is(err, store.ErrDuplicateEmail):
			return domain.View{}, ErrDuplicateEmail
		default:
			s.log.WithError(err).WithField("email", email).Error("account insert failed")
			return domain.View{}, fmt.Errorf("creating account: %w", err)
		}
	}

	s.log.WithField("attempts", maxCodeAttempts).Error("referral code space exhausted")
	return domain.View{}, ErrCodeExhausted
}

// Login verifies credentials and returns the public projection. It
// issues no session; callers only learn whether the password matches.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.View, error) {
	email := normalizeEmail(req.Email)
	if !validEmail(email) || req.Password == "" {
		return domain.View{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.View{}, ErrInvalidCredentials
		}
		s.log.WithError(err).WithField("email", email).Error("login lookup failed")
		return domain.View{}, fmt.Errorf("looking up account: %w", err)
	}

	if !s.hasher.Verify(req.Password, account.CredentialHash) {
		return domain.View{}, ErrInvalidCredentials
	}
	return domain.ViewOf(account), nil
}
