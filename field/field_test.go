//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package field

import (
	"math/big"
	"testing"
)

func TestAddSubNeg(t *testing.T) {
	f := New(41)
	for a := uint64(0); a < 41; a++ {
		for b := uint64(0); b < 41; b++ {
			got := f.Add(Element(a), Element(b))
			want := (a + b) % 41
			if uint64(got) != want {
				t.Fatalf("Add(%d,%d)=%d, want %d", a, b, got, want)
			}
			got = f.Sub(Element(a), Element(b))
			want = (a + 41 - b) % 41
			if uint64(got) != want {
				t.Fatalf("Sub(%d,%d)=%d, want %d", a, b, got, want)
			}
		}
		if f.Add(Element(a), f.Neg(Element(a))) != 0 {
			t.Fatalf("a + -a != 0 for a=%d", a)
		}
	}
}

func TestMulLargePrime(t *testing.T) {
	const p = (1 << 31) - 19
	f := New(p)
	a := Element(p - 1)
	b := Element(p - 1)
	got := f.Mul(a, b)

	want := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	want.Mod(want, big.NewInt(p))
	if uint64(got) != want.Uint64() {
		t.Fatalf("Mul=%d, want %s", got, want)
	}
}

func TestInverse(t *testing.T) {
	f := New(67)
	for a := uint64(1); a < 67; a++ {
		inv, err := f.Inverse(Element(a))
		if err != nil {
			t.Fatal(err)
		}
		if f.Mul(Element(a), inv) != 1 {
			t.Fatalf("a=%d * inv(a)=%d != 1", a, inv)
		}
	}
}

func TestSqrtPMod3(t *testing.T) {
	// 11 = 3 mod 4.
	f := New(11)
	for a := uint64(0); a < 11; a++ {
		sq := f.Mul(Element(a), Element(a))
		root, ok := f.Sqrt(sq)
		if !ok {
			t.Fatalf("expected residue for %d^2=%d", a, sq)
		}
		if f.Mul(root, root) != sq {
			t.Fatalf("root^2 != original for a=%d", a)
		}
	}
}

func TestSqrtPMod1(t *testing.T) {
	// 41 = 1 mod 4, exercises Tonelli-Shanks.
	f := New(41)
	for a := uint64(0); a < 41; a++ {
		sq := f.Mul(Element(a), Element(a))
		root, ok := f.Sqrt(sq)
		if !ok {
			t.Fatalf("expected residue for %d^2=%d", a, sq)
		}
		if f.Mul(root, root) != sq {
			t.Fatalf("root^2 != original for a=%d", a)
		}
		other := f.Neg(root)
		if other < root {
			t.Fatalf("Sqrt did not return the smaller representative for a=%d", a)
		}
	}
}

func TestLegendre(t *testing.T) {
	f := New(41)
	if f.Legendre(0) != 0 {
		t.Fatal("Legendre(0) != 0")
	}
	residues := 0
	for a := uint64(1); a < 41; a++ {
		if f.Legendre(Element(a)) == 1 {
			residues++
		}
	}
	if residues != 20 {
		t.Fatalf("expected 20 quadratic residues mod 41, got %d", residues)
	}
}

func TestBitsRoundTrip(t *testing.T) {
	f := New(41) // BitLen = 6
	if f.BitLen() != 6 {
		t.Fatalf("BitLen=%d, want 6", f.BitLen())
	}
	for v := uint64(0); v < 41; v++ {
		bits := f.Bits(v)
		if len(bits) != 6 {
			t.Fatalf("len(Bits(%d))=%d, want 6", v, len(bits))
		}
		got := f.ComputeNumber(bits)
		if uint64(got) != v {
			t.Fatalf("ComputeNumber(Bits(%d))=%d", v, got)
		}
	}
}
