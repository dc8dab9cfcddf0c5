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

func TestMinReducesToSmallest(t *testing.T) {
	// A large prime keeps every LessThan's internal bitwise-random-number
	// draw's per-attempt failure probability negligible, so a handful of
	// whole-tournament retries is enough to absorb it.
	const numPeers, degree, p = 3, 1, 2147483629 // 2^31-19
	s := newTestSetup(t, p, numPeers, degree)

	values := []field.Element{7, 3, 9, 2, 5}
	sharesByValue := make([][]field.Element, len(values))
	for i, v := range values {
		sharesByValue[i] = s.share(t, v)
	}

	results := runUntilSuccess(t, s, 5, func() []Operation {
		ops := make([]Operation, numPeers)
		for peer := range ops {
			row := make([]field.Element, len(values))
			for i := range values {
				row[i] = sharesByValue[i][peer]
			}
			ops[peer] = NewMin(row, numPeers, false)
		}
		return ops
	})
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 2 {
		t.Fatalf("Min(%v)=%d, want 2", values, got)
	}
}

func TestMinOfSingleValueIsIdentity(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	shares := s.share(t, 42)
	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewMin([]field.Element{shares[i]}, numPeers, false)
	}
	results := runOps(t, s, ops)
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 42 {
		t.Fatalf("Min of a single value = %d, want 42", got)
	}
}

func TestMinRejectsEmptyInput(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	op := NewMin(nil, numPeers, false)
	if err := op.DoStep(s.ctxs[0]); err == nil {
		t.Fatal("expected an error for an empty min")
	}
}
