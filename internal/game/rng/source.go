// Package rng provides the random sources used by the combat core.
// All randomness flows through the Source interface so that tests and
// replays can substitute a deterministic implementation.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// Source supplies the two random primitives the combat core needs:
// uniform integers for target selection and uniform floats for
// critical, resistance, and mistake rolls.
type Source interface {
	// Intn returns a uniform int in [0, n).
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a uniform float64 in [0, 1).
	Float64() float64
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in their range.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n); every value
// returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure random float64 in [0, 1).
// It uses 53 random bits, matching the precision of math/rand.Float64.
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	// Keep 53 bits so the result is exactly representable and < 1.
	bits := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(bits) / (1 << 53)
}
