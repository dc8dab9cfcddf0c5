//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"testing"

	"github.com/markkurossi/sepia/field"
)

func TestBitwiseLessThanSecretVsPublic(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	// a=5 (101), b=6 (110), MSB first. 5 < 6.
	aBits := []field.Element{1, 0, 1}
	bBits := PublicBits([]field.Element{1, 1, 0})

	sharesByBit := make([][]field.Element, len(aBits))
	for i, bit := range aBits {
		sharesByBit[i] = s.share(t, bit)
	}

	ops := make([]Operation, numPeers)
	for peer := range ops {
		row := make([]field.Element, len(aBits))
		for i := range aBits {
			row[i] = sharesByBit[i][peer]
		}
		op, err := NewBitwiseLessThan(SecretBits(row), bBits, numPeers, false)
		if err != nil {
			t.Fatalf("NewBitwiseLessThan: %v", err)
		}
		ops[peer] = op
	}
	results := runOps(t, s, ops)
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 1 {
		t.Fatalf("BitwiseLessThan(5,6)=%d, want 1", got)
	}
}

func TestBitwiseLessThanBothSecretNotLess(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	// a=5 (101), b=4 (100), MSB first. 5 is not less than 4.
	aBits := []field.Element{1, 0, 1}
	bBits := []field.Element{1, 0, 0}

	aShares := make([][]field.Element, len(aBits))
	bShares := make([][]field.Element, len(bBits))
	for i := range aBits {
		aShares[i] = s.share(t, aBits[i])
		bShares[i] = s.share(t, bBits[i])
	}

	ops := make([]Operation, numPeers)
	for peer := range ops {
		rowA := make([]field.Element, len(aBits))
		rowB := make([]field.Element, len(bBits))
		for i := range aBits {
			rowA[i] = aShares[i][peer]
			rowB[i] = bShares[i][peer]
		}
		op, err := NewBitwiseLessThan(SecretBits(rowA), SecretBits(rowB), numPeers, false)
		if err != nil {
			t.Fatalf("NewBitwiseLessThan: %v", err)
		}
		ops[peer] = op
	}
	results := runOps(t, s, ops)
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 0 {
		t.Fatalf("BitwiseLessThan(5,4)=%d, want 0", got)
	}
}

func TestBitwiseLessThanRejectsMismatchedLengths(t *testing.T) {
	_, err := NewBitwiseLessThan(PublicBits([]field.Element{1, 0}), PublicBits([]field.Element{1}), 3, false)
	if err == nil {
		t.Fatal("expected an error for mismatched bit lengths")
	}
}

func TestBitwiseLessThanRejectsBothPublic(t *testing.T) {
	_, err := NewBitwiseLessThan(PublicBits([]field.Element{1}), PublicBits([]field.Element{0}), 3, false)
	if err == nil {
		t.Fatal("expected an error when both sides are public")
	}
}
