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

func TestLSBExtractsLeastSignificantBit(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	cases := []struct {
		x    field.Element
		want field.Element
	}{
		{10, 0},
		{11, 1},
	}
	for _, c := range cases {
		shares := s.share(t, c.x)
		results := runUntilSuccess(t, s, 25, func() []Operation {
			ops := make([]Operation, numPeers)
			for i := range ops {
				ops[i] = NewLSB(shares[i], numPeers, false, nil)
			}
			return ops
		})
		got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
		if got != c.want {
			t.Fatalf("LSB(%d)=%d, want %d", c.x, got, c.want)
		}
	}
}
