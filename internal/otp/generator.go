// Package otp generates the numeric one-time codes sent to users.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Generator produces one-time codes. The interface exists so tests can
// substitute a fixed sequence.
type Generator interface {
	Generate() (string, error)
}

// CryptoGenerator draws codes from crypto/rand. Zero value is ready to use.
type CryptoGenerator struct{}

// Generate returns a 6-digit numeric string with uniformly distributed
// digits. It fails only when the entropy source is exhausted, which callers
// should treat as unrecoverable.
func (CryptoGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("otp: reading entropy source: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
