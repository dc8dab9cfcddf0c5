//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package shamir implements Shamir secret sharing and Lagrange
// interpolation over a prime field, with crash-tolerant reconstruction
// and a cache of Lagrange weights keyed by the set of present shares.
package shamir

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/markkurossi/sepia/field"
)

// MissingShare is the sentinel used for a share that a crashed peer
// never delivered.
const MissingShare field.Element = ^field.Element(0)

// ErrNotEnoughShares is returned by Reconstruct when fewer than the
// required threshold of shares are present.
var ErrNotEnoughShares = errors.New("shamir: not enough shares to interpolate")

// Scheme holds the public parameters of a sharing scheme: the field,
// the polynomial degree t, and the alpha evaluation points of the m
// privacy peers. It precomputes the Vandermonde matrix used to
// generate shares and caches Lagrange weight sets keyed by which
// peers are present.
type Scheme struct {
	Field  *field.Field
	Degree int
	Alphas []field.Element // one per privacy peer, 1-based peers use Alphas[i-1]

	vander [][]field.Element // vander[i][j] = alpha_i^j, j=0..2*Degree+1

	mu      sync.Mutex
	weights map[string][]field.Element
}

// NewScheme creates a sharing scheme for m privacy peers with
// polynomial degree t. Alphas default to 2..m+1, matching the
// reference convention that 0 and 1 are not usable evaluation points.
func NewScheme(f *field.Field, m, t int) (*Scheme, error) {
	if t < 1 || t > (m-1)/2 {
		return nil, fmt.Errorf("shamir: invalid degree t=%d for m=%d peers", t, m)
	}
	alphas := make([]field.Element, m)
	for i := 0; i < m; i++ {
		alphas[i] = field.Element(i + 2)
	}
	return newSchemeWithAlphas(f, t, alphas)
}

func newSchemeWithAlphas(f *field.Field, t int, alphas []field.Element) (*Scheme, error) {
	m := len(alphas)
	seen := map[field.Element]bool{}
	for _, a := range alphas {
		if a == 0 || a == 1 {
			return nil, fmt.Errorf("shamir: alpha %d is reserved (0 and 1 are not usable)", a)
		}
		if seen[a] {
			return nil, fmt.Errorf("shamir: duplicate alpha %d", a)
		}
		seen[a] = true
	}
	s := &Scheme{
		Field:   f,
		Degree:  t,
		Alphas:  append([]field.Element(nil), alphas...),
		weights: make(map[string][]field.Element),
	}
	maxPow := 2*t + 1
	s.vander = make([][]field.Element, m)
	for i := 0; i < m; i++ {
		row := make([]field.Element, maxPow+1)
		row[0] = 1
		for j := 1; j <= maxPow; j++ {
			row[j] = f.Mul(row[j-1], alphas[i])
		}
		s.vander[i] = row
	}
	return s, nil
}

// MaxMultDegree returns 2*t, the degree of the intermediate polynomial
// produced by a multiplication.
func (s *Scheme) MaxMultDegree() int {
	return 2 * s.Degree
}

// Share shares secret across all m privacy peers using a degree-t
// polynomial with a0=secret and uniform random higher coefficients
// drawn from rnd. degreeOverride, if >= 0, shares at that degree
// instead of s.Degree (used by Multiplication, which reshares the
// local product at degree t even though the product itself lives on a
// degree-2t polynomial).
func (s *Scheme) Share(secret field.Element, rnd io.Reader, degreeOverride int) ([]field.Element, error) {
	degree := s.Degree
	if degreeOverride >= 0 {
		degree = degreeOverride
	}
	coeffs := make([]field.Element, degree+1)
	coeffs[0] = secret
	randBuf := make([]byte, 8)
	for i := 1; i <= degree; i++ {
		if _, err := io.ReadFull(rnd, randBuf); err != nil {
			return nil, fmt.Errorf("shamir: reading randomness: %w", err)
		}
		var v uint64
		for _, b := range randBuf {
			v = v<<8 | uint64(b)
		}
		coeffs[i] = s.Field.Elem(v)
	}
	return s.sharesForCoefficients(coeffs)
}

func (s *Scheme) sharesForCoefficients(coeffs []field.Element) ([]field.Element, error) {
	degree := len(coeffs) - 1
	if degree > s.MaxMultDegree() {
		return nil, fmt.Errorf("shamir: degree %d exceeds precomputed Vandermonde range", degree)
	}
	out := make([]field.Element, len(s.Alphas))
	for i := range s.Alphas {
		row := s.vander[i]
		var acc field.Element
		for j := 0; j <= degree; j++ {
			acc = s.Field.Add(acc, s.Field.Mul(coeffs[j], row[j]))
		}
		out[i] = acc
	}
	return out, nil
}

// availabilityKey builds the cache key for the set of peers present in
// shares (entries equal to MissingShare are absent).
func availabilityKey(shares []field.Element) string {
	buf := make([]byte, len(shares))
	for i, sh := range shares {
		if sh != MissingShare {
			buf[i] = 1
		}
	}
	return string(buf)
}

// weightsFor returns (and caches) the Lagrange weights for the peers
// present in shares.
func (s *Scheme) weightsFor(shares []field.Element) []field.Element {
	key := availabilityKey(shares)

	s.mu.Lock()
	if w, ok := s.weights[key]; ok {
		s.mu.Unlock()
		return w
	}
	s.mu.Unlock()

	f := s.Field
	w := make([]field.Element, len(shares))
	for i, si := range shares {
		if si == MissingShare {
			continue
		}
		num := field.Element(1)
		den := field.Element(1)
		for j, sj := range shares {
			if i == j || sj == MissingShare {
				continue
			}
			num = f.Mul(num, s.Alphas[j])
			den = f.Mul(den, f.Sub(s.Alphas[j], s.Alphas[i]))
		}
		denInv, err := f.Inverse(den)
		if err != nil {
			// Alphas are pairwise distinct and nonzero by
			// construction, so den is never zero.
			panic(fmt.Sprintf("shamir: singular Lagrange denominator: %v", err))
		}
		w[i] = f.Mul(num, denInv)
	}

	s.mu.Lock()
	s.weights[key] = w
	s.mu.Unlock()
	return w
}

// Reconstruct interpolates a length-m share vector (MissingShare
// entries ignored) back to the shared secret. threshold is the
// minimum number of present shares required — t+1 for ordinary
// sharings, 2t+1 for a multiplication's intermediate product.
func (s *Scheme) Reconstruct(shares []field.Element, threshold int) (field.Element, error) {
	present := 0
	for _, sh := range shares {
		if sh != MissingShare {
			present++
		}
	}
	if present < threshold {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughShares, present, threshold)
	}

	weights := s.weightsFor(shares)
	var result field.Element
	for i, sh := range shares {
		if sh == MissingShare {
			continue
		}
		result = s.Field.Add(result, s.Field.Mul(weights[i], sh))
	}
	return result, nil
}

// Count returns the number of privacy peers in the scheme.
func (s *Scheme) Count() int {
	return len(s.Alphas)
}
