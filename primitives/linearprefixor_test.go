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

func TestLinearPrefixOrComputesPrefixOr(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	// MSB first: 0,0,1,0,1 -> prefix OR 0,0,1,1,1
	x := []field.Element{0, 0, 1, 0, 1}
	want := []field.Element{0, 0, 1, 1, 1}

	sharesByBit := make([][]field.Element, len(x))
	for i, bit := range x {
		sharesByBit[i] = s.share(t, bit)
	}

	ops := make([]Operation, numPeers)
	for peer := range ops {
		row := make([]field.Element, len(x))
		for i := range x {
			row[i] = sharesByBit[i][peer]
		}
		ops[peer] = NewLinearPrefixOr(row, numPeers, false)
	}
	results := runOps(t, s, ops)

	for i := range want {
		got := s.reconstruct(t, column(results, i), s.ctxs[0].MultThreshold())
		if got != want[i] {
			t.Fatalf("prefix-or[%d] = %d, want %d", i, got, want[i])
		}
	}
}

func TestLinearPrefixOrSingleBit(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	shares := s.share(t, 1)
	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewLinearPrefixOr([]field.Element{shares[i]}, numPeers, false)
	}
	results := runOps(t, s, ops)
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 1 {
		t.Fatalf("prefix-or of a single bit = %d, want 1", got)
	}
}
