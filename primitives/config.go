//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/chacha20"
)

// Config holds the options the Primitives engine consumes from its
// surrounding application (spec.md §6). It never parses flags, env
// vars, or files itself — that belongs to the external launcher — but
// owns validation and the defaulting rules for the options it exposes.
type Config struct {
	// PrimeFieldSize is the prime p used for sharing.
	PrimeFieldSize uint64

	// PolynomialDegreeT is the Shamir polynomial degree. -1 selects
	// the default floor((m-1)/2).
	PolynomialDegreeT int

	// NumPrivacyPeers is m, the number of privacy peers.
	NumPrivacyPeers int

	// MyPrivacyPeerIndex is this peer's 1-based index into the
	// ordered peer list.
	MyPrivacyPeerIndex int

	// ParallelOperationsCount caps how many operations of a set run
	// concurrently. 0 selects "all in parallel".
	ParallelOperationsCount int

	// SynchronizeShares enables the mask-intersection safeguard in
	// Multiplication.
	SynchronizeShares bool

	// RandomAlgorithm selects the PRNG backing share generation:
	// "default" (crypto/rand) or "chacha20" (seeded CSPRNG, for
	// deterministic test runs).
	RandomAlgorithm string
}

// Validate checks the configuration for internal consistency and
// returns the effective (defaulted) degree.
func (c Config) Validate() (degree int, err error) {
	if c.PrimeFieldSize < 5 {
		return 0, fmt.Errorf("%w: prime_field_size too small: %d", ErrProtocol, c.PrimeFieldSize)
	}
	if !probablyPrime(c.PrimeFieldSize) {
		return 0, fmt.Errorf("%w: prime_field_size %d does not look prime", ErrProtocol, c.PrimeFieldSize)
	}
	if c.NumPrivacyPeers < 2 {
		return 0, fmt.Errorf("%w: num_privacy_peers must be >= 2, got %d", ErrProtocol, c.NumPrivacyPeers)
	}
	if c.MyPrivacyPeerIndex < 1 || c.MyPrivacyPeerIndex > c.NumPrivacyPeers {
		return 0, fmt.Errorf("%w: my_privacy_peer_index %d out of range [1,%d]",
			ErrProtocol, c.MyPrivacyPeerIndex, c.NumPrivacyPeers)
	}

	degree = c.PolynomialDegreeT
	if degree == -1 {
		degree = (c.NumPrivacyPeers - 1) / 2
	}
	if degree < 1 || degree > (c.NumPrivacyPeers-1)/2 {
		return 0, fmt.Errorf("%w: polynomial_degree_t=%d invalid for m=%d",
			ErrProtocol, degree, c.NumPrivacyPeers)
	}
	if c.ParallelOperationsCount < 0 {
		return 0, fmt.Errorf("%w: parallel_operations_count must be >= 0", ErrProtocol)
	}
	return degree, nil
}

// probablyPrime is a small Miller-Rabin wrapper; the engine does not
// need a sophisticated primality test since p is a configuration
// value chosen ahead of time, not attacker controlled.
func probablyPrime(p uint64) bool {
	return new(big.Int).SetUint64(p).ProbablyPrime(20)
}

// RandomSource produces the uniform randomness consumed when sharing
// secrets and sampling random field elements. The zero value is not
// usable; construct one with NewRandomSource.
type RandomSource struct {
	io.Reader
}

// NewRandomSource builds the PRNG named by algorithm. "default" uses
// the process-wide CSPRNG (crypto/rand) for reproducible-by-seed
// behaviour is explicitly not offered here: the reference system's
// open question (spec.md §9) about keeping a non-cryptographic PRNG
// for reproducibility is resolved in favour of tightening to a CSPRNG,
// since shares leaking through a predictable PRNG would defeat the
// entire privacy goal of the engine. "chacha20" additionally accepts
// an explicit 32-byte seed for deterministic test runs.
func NewRandomSource(algorithm string, seed []byte) (*RandomSource, error) {
	switch algorithm {
	case "", "default":
		return &RandomSource{Reader: rand.Reader}, nil
	case "chacha20":
		if len(seed) != chacha20.KeySize {
			return nil, fmt.Errorf("%w: chacha20 random source needs a %d-byte seed",
				ErrProtocol, chacha20.KeySize)
		}
		nonce := make([]byte, chacha20.NonceSize)
		c, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
		if err != nil {
			return nil, fmt.Errorf("random_algorithm=chacha20: %w", err)
		}
		return &RandomSource{Reader: &chachaReader{cipher: c}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown random_algorithm %q", ErrProtocol, algorithm)
	}
}

// chachaReader turns a keystream cipher into an io.Reader of uniform
// bytes, the same adaptation the reference repo's vole.Ext applies to
// chacha20 for PRG expansion.
type chachaReader struct {
	cipher *chacha20.Cipher
}

func (r *chachaReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
