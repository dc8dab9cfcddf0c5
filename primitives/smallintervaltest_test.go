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

func TestSmallIntervalTestMembership(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	cases := []struct {
		x    field.Element
		l, u uint64
		want field.Element
	}{
		{5, 3, 8, 1},
		{9, 3, 8, 0},
		{3, 3, 8, 1}, // lower bound inclusive
		{8, 3, 8, 1}, // upper bound inclusive
	}
	for _, c := range cases {
		shares := s.share(t, c.x)
		ops := make([]Operation, numPeers)
		for i := range ops {
			op, err := NewSmallIntervalTest(shares[i], c.l, c.u, numPeers, false)
			if err != nil {
				t.Fatalf("NewSmallIntervalTest: %v", err)
			}
			ops[i] = op
		}
		results := runOps(t, s, ops)
		got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
		if got != c.want {
			t.Fatalf("SmallIntervalTest(%d,[%d,%d])=%d, want %d", c.x, c.l, c.u, got, c.want)
		}
	}
}

func TestSmallIntervalTestRejectsEmptyInterval(t *testing.T) {
	_, err := NewSmallIntervalTest(5, 8, 3, 3, false)
	if err == nil {
		t.Fatal("expected an error for an empty interval")
	}
}
