//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package field implements modular arithmetic over a prime field used
// to carry Shamir shares. Values below 2^63 are handled with plain
// machine arithmetic; the implementation falls back to math/big
// whenever a product could overflow that range.
package field

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Element is a field element in [0, P) for some prime P.
type Element uint64

// Field implements arithmetic modulo a prime P.
type Field struct {
	P uint64

	// big is set once; Mod fits P and is reused to avoid
	// reallocating a big.Int on every big-path multiplication.
	big     *big.Int
	bigSafe bool // true when (P-1)*(P-1) overflows 64 bits, forcing the math/big path
}

// New creates a field modulo p. p is trusted to be prime; the field
// does not verify primality (see Inverse).
func New(p uint64) *Field {
	f := &Field{
		P:   p,
		big: new(big.Int).SetUint64(p),
	}
	// If (p-1)*(p-1) overflows uint64, every multiplication must go
	// through math/big.
	hi, _ := bits.Mul64(p-1, p-1)
	f.bigSafe = hi != 0
	return f
}

// Elem reduces an arbitrary uint64 into the field.
func (f *Field) Elem(v uint64) Element {
	return Element(v % f.P)
}

// Add returns (a+b) mod p.
func (f *Field) Add(a, b Element) Element {
	s := uint64(a) + uint64(b)
	if s >= f.P {
		s -= f.P
	}
	return Element(s)
}

// Sub returns (a-b) mod p.
func (f *Field) Sub(a, b Element) Element {
	if a >= b {
		return Element(uint64(a) - uint64(b))
	}
	return Element(f.P - uint64(b) + uint64(a))
}

// Neg returns (-a) mod p.
func (f *Field) Neg(a Element) Element {
	if a == 0 {
		return 0
	}
	return Element(f.P - uint64(a))
}

// Mul returns (a*b) mod p, falling back to big.Int when the product
// could overflow 64 bits.
func (f *Field) Mul(a, b Element) Element {
	if !f.bigSafe {
		hi, lo := bits.Mul64(uint64(a), uint64(b))
		if hi == 0 {
			return Element(lo % f.P)
		}
	}
	var x, y, m big.Int
	x.SetUint64(uint64(a))
	y.SetUint64(uint64(b))
	x.Mul(&x, &y)
	m.Mod(&x, f.big)
	return Element(m.Uint64())
}

// Pow returns a^e mod p using fast exponentiation (square and
// multiply, exponent scanned LSB first).
func (f *Field) Pow(a Element, e uint64) Element {
	result := Element(1 % f.P)
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = f.Mul(result, base)
		}
		base = f.Mul(base, base)
		e >>= 1
	}
	return result
}

// Inverse returns the multiplicative inverse of a modulo p, computed
// via Fermat's little theorem (a^(p-2) mod p). This is only correct
// when p is prime; for composite p the result is undefined and
// callers must not rely on it.
func (f *Field) Inverse(a Element) (Element, error) {
	if a == 0 {
		return 0, fmt.Errorf("field: inverse of zero")
	}
	return f.Pow(a, f.P-2), nil
}

// Legendre returns the Legendre symbol of a with respect to p: 1 if a
// is a nonzero quadratic residue, p-1 (i.e. -1) if it is a
// nonresidue, and 0 if a is zero.
func (f *Field) Legendre(a Element) Element {
	if a == 0 {
		return 0
	}
	return f.Pow(a, (f.P-1)/2)
}

// Sqrt computes a square root of a modulo p, returning the smaller of
// the two representatives (per the "smaller root" convention used by
// the random-bit protocol). ok is false if a is not a quadratic
// residue.
func (f *Field) Sqrt(a Element) (root Element, ok bool) {
	if a == 0 {
		return 0, true
	}
	if f.Legendre(a) != 1 {
		return 0, false
	}
	if f.P%4 == 3 {
		root = f.Pow(a, (f.P+1)/4)
	} else {
		root = f.tonelliShanks(a)
	}
	other := f.Neg(root)
	if other < root {
		root = other
	}
	return root, true
}

// tonelliShanks implements the Tonelli-Shanks algorithm for p = 1 mod 4.
func (f *Field) tonelliShanks(n Element) Element {
	// Factor p-1 = q*2^s with q odd.
	q := f.P - 1
	s := uint(0)
	for q%2 == 0 {
		q /= 2
		s++
	}

	// Find a quadratic nonresidue z.
	var z Element
	for cand := Element(2); ; cand++ {
		if f.Legendre(cand) == Element(f.P-1) {
			z = cand
			break
		}
	}

	m := s
	c := f.Pow(z, q)
	t := f.Pow(n, q)
	r := f.Pow(n, (q+1)/2)

	for t != 1 {
		// Find least i, 0<i<m, such that t^(2^i) = 1.
		i := uint(0)
		tt := t
		for tt != 1 {
			tt = f.Mul(tt, tt)
			i++
		}
		b := c
		for j := uint(0); j < m-i-1; j++ {
			b = f.Mul(b, b)
		}
		m = i
		c = f.Mul(b, b)
		t = f.Mul(t, c)
		r = f.Mul(r, b)
	}
	return r
}

// Bits returns the big-endian bit decomposition of a public value v
// into ceil(log2(p)) bits, most significant bit first.
func (f *Field) Bits(v uint64) []Element {
	n := f.BitLen()
	out := make([]Element, n)
	for i := 0; i < n; i++ {
		shift := uint(n - 1 - i)
		out[i] = Element((v >> shift) & 1)
	}
	return out
}

// BitLen returns ceil(log2(p)).
func (f *Field) BitLen() int {
	return bits.Len64(f.P - 1)
}

// ComputeNumber recombines a big-endian bit vector (as produced by
// Bits or by GenerateBitwiseRandomNumber) into a single field element.
func (f *Field) ComputeNumber(b []Element) Element {
	var v Element
	for _, bit := range b {
		v = f.Add(f.Mul(v, 2), bit)
	}
	return v
}

// Half returns floor(p/2), used throughout the comparison primitives
// to test whether a secret lies in the "small" half of the field.
func (f *Field) Half() uint64 {
	return f.P / 2
}
