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

func TestSynchronizationAndsReadinessVectors(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	mine := [][]field.Element{
		{1, 1, 0},
		{1, 0, 0},
		{1, 1, 1},
	}
	want := []field.Element{1, 0, 0}

	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewSynchronization(mine[i], numPeers)
	}
	results := runOps(t, s, ops)
	for peer, r := range results {
		for i, v := range want {
			if r[i] != v {
				t.Fatalf("peer %d result[%d]=%d, want %d", peer, i, r[i], v)
			}
		}
	}
}

func TestSynchronizationTreatsCrashedPeerAsAllZero(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	mine := [][]field.Element{
		{1, 1},
		{1, 1},
		{1, 0}, // will crash before sending
	}
	const crashed = 2

	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewSynchronization(mine[i], numPeers)
	}

	for i, op := range ops {
		if i == crashed {
			continue
		}
		if err := op.DoStep(s.ctxs[i]); err != nil {
			t.Fatalf("peer %d step 0: %v", i, err)
		}
	}
	for i := 0; i < numPeers; i++ {
		if i == crashed {
			continue
		}
		for j := i + 1; j < numPeers; j++ {
			if j == crashed {
				markMissing(ops[i], j)
				continue
			}
			var sizesI, sizesJ []int
			recordSizes(ops[i], j, &sizesI)
			recordSizes(ops[j], i, &sizesJ)
			outI := collectOutbound(ops[i], j)
			outJ := collectOutbound(ops[j], i)
			idxI, idxJ := 0, 0
			distributeInbound(ops[i], j, sizesI, &idxI, outJ)
			distributeInbound(ops[j], i, sizesJ, &idxJ, outI)
		}
	}
	for i, op := range ops {
		if i == crashed {
			continue
		}
		if err := op.DoStep(s.ctxs[i]); err != nil {
			t.Fatalf("peer %d step 1: %v", i, err)
		}
	}

	want := []field.Element{0, 0}
	for i, op := range ops {
		if i == crashed {
			continue
		}
		r := op.FinalResult()
		for j, v := range want {
			if r[j] != v {
				t.Fatalf("peer %d result[%d]=%d, want %d (crashed peer should count as all-zero)", i, j, r[j], v)
			}
		}
	}
}
