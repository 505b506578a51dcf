// Package refcode generates referral codes. Codes are uniqueness
// tokens, not security tokens, so a non-cryptographic PRNG is fine;
// uniqueness is enforced by the store, not here.
package refcode

import "math/rand"

// Alphabet is the fixed set of code characters. Visually ambiguous
// characters (0/O, 1/I/L) are excluded so codes survive being read
// aloud or retyped.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length is the standard code length used at registration.
const Length = 6

// Generate returns a code of n characters drawn uniformly from
// Alphabet. Safe for concurrent use.
func Generate(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = Alphabet[rand.Intn(len(Alphabet))]
	}
	return string(b)
}
