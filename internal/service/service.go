// Package service implements registration, referral redemption,
// credential verification and profile lookup on top of the store
// contract. Concurrency correctness is delegated to the store's
// atomic primitives; nothing here takes locks.
package service

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/punchamoorthee/referralops/internal/password"
	"github.com/punchamoorthee/referralops/internal/refcode"
	"github.com/punchamoorthee/referralops/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrCodeExhausted      = errors.New("could not generate unique referral code")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCode        = errors.New("invalid referral code")
	ErrSelfReferral       = errors.New("cannot use your own referral code")
	ErrAlreadyRedeemed    = errors.New("referral already applied")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// maxCodeAttempts bounds the unique-code acquisition loop. Exhausting
// it means the code space needs revisiting, which is an operational
// anomaly rather than a user error.
const maxCodeAttempts = 5

type Service struct {
	store  store.Store
	hasher password.Hasher
	gen    func(length int) string
	log    *logrus.Logger
}

func New(st store.Store, hasher password.Hasher, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		store:  st,
		hasher: hasher,
		gen:    refcode.Generate,
		log:    log,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// validEmail is the basic shape check: non-empty local part and a
// domain segment containing a dot.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
