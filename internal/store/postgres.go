package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/referralops/internal/domain"
)

// Constraint names from the schema in cmd/seeder. Collision identity
// depends on them: the insert error is tagged by which one fired.
const (
	emailConstraint = "accounts_pkey"
	codeConstraint  = "accounts_referral_code_key"
)

const uniqueViolation = "23505"

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{db: pool}, nil
}

func (s *Postgres) Close() {
	s.db.Close()
}

func (s *Postgres) InsertAccount(ctx context.Context, a *domain.Account) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO accounts (email, name, credential_hash, referral_code, balance, has_redeemed, redeemed_from)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		a.Email, a.Name, a.CredentialHash, a.ReferralCode, a.Balance, a.HasRedeemed, a.RedeemedFrom,
	).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case emailConstraint:
				return ErrDuplicateEmail
			case codeConstraint:
				return ErrDuplicateCode
			}
		}
		return fmt.Errorf("account insert failed: %w", err)
	}
	return nil
}

func (s *Postgres) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getAccount(ctx, "email = $1", email)
}

func (s *Postgres) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return s.getAccount(ctx, "referral_code = $1", code)
}

func (s *Postgres) getAccount(ctx context.Context, where string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRow(ctx,
		`SELECT email, name, credential_hash, referral_code, balance, has_redeemed, redeemed_from, created_at
		 FROM accounts WHERE `+where, arg,
	).Scan(&a.Email, &a.Name, &a.CredentialHash, &a.ReferralCode, &a.Balance, &a.HasRedeemed, &a.RedeemedFrom, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return &a, nil
}

// CreditReferral is a single conditional UPDATE: the WHERE clause on
// has_redeemed closes the double-redemption race, so no transaction or
// row lock is needed.
func (s *Postgres) CreditReferral(ctx context.Context, email string, reward int64, from string) (*domain.Account, bool, error) {
	var a domain.Account
	err := s.db.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = balance + $1, has_redeemed = TRUE, redeemed_from = $2
		 WHERE email = $3 AND has_redeemed = FALSE
		 RETURNING email, name, credential_hash, referral_code, balance, has_redeemed, redeemed_from, created_at`,
		reward, from, email,
	).Scan(&a.Email, &a.Name, &a.CredentialHash, &a.ReferralCode, &a.Balance, &a.HasRedeemed, &a.RedeemedFrom, &a.CreatedAt)
	if err == nil {
		return &a, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("referral credit failed: %w", err)
	}

	// No row matched: either the account is gone or the condition
	// failed. Distinguish so callers can report NotFound correctly.
	if _, err := s.GetAccountByEmail(ctx, email); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func (s *Postgres) RewardCoins(ctx context.Context) (int64, bool, error) {
	var amount int64
	err := s.db.QueryRow(ctx, "SELECT reward_coins FROM reward_config WHERE singleton").Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reward config read failed: %w", err)
	}
	return amount, true, nil
}
