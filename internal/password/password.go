// Package password wraps the one-way credential hashing collaborator.
package password

import "golang.org/x/crypto/bcrypt"

// Hasher is the hash/verify capability injected into the service so
// tests can run at a cheaper work factor.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Bcrypt hashes with golang.org/x/crypto/bcrypt at the given cost.
type Bcrypt struct {
	Cost int
}

// New returns a Bcrypt hasher at the library's default cost.
func New() Bcrypt {
	return Bcrypt{Cost: bcrypt.DefaultCost}
}

func (b Bcrypt) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b Bcrypt) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
