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

func TestProductReconstructsProduct(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	for _, values := range [][]field.Element{
		{2, 3, 4, 5}, // even length
		{2, 3, 5},    // odd length exercises the carry-over element
		{9},          // single value, zero rounds
	} {
		sharesByValue := make([][]field.Element, len(values))
		for i, v := range values {
			sharesByValue[i] = s.share(t, v)
		}

		ops := make([]Operation, numPeers)
		for peer := range ops {
			row := make([]field.Element, len(values))
			for i := range values {
				row[i] = sharesByValue[i][peer]
			}
			ops[peer] = NewProduct(row, numPeers, false)
		}
		results := runOps(t, s, ops)
		got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())

		want := field.Element(1)
		for _, v := range values {
			want = s.f.Mul(want, v)
		}
		if got != want {
			t.Fatalf("Product(%v)=%d, want %d", values, got, want)
		}
	}
}

func TestProductRejectsEmptyInput(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	op := NewProduct(nil, numPeers, false)
	if err := op.DoStep(s.ctxs[0]); err == nil {
		t.Fatal("expected an error for an empty product")
	}
}
