//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"testing"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/shamir"
)

func TestMultiplicationReconstructsProduct(t *testing.T) {
	const numPeers, degree, p = 5, 2, 41
	s := newTestSetup(t, p, numPeers, degree)

	a, b := field.Element(6), field.Element(7)
	sharesA := s.share(t, a)
	sharesB := s.share(t, b)

	for _, sync := range []bool{false, true} {
		ops := make([]Operation, numPeers)
		for i := range ops {
			ops[i] = NewMultiplication(sharesA[i], sharesB[i], numPeers, sync)
		}
		results := runOps(t, s, ops)
		got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
		if got != s.f.Mul(a, b) {
			t.Fatalf("sync=%v: Multiplication(%d,%d)=%d, want %d", sync, a, b, got, s.f.Mul(a, b))
		}
	}
}

func TestMultiplicationTreatsCrashedPeerAsMissing(t *testing.T) {
	// m=6, t=2 gives 2t+1=5 <= m-1, so reconstruction still succeeds
	// with exactly one peer's share absent.
	const numPeers, degree, p = 6, 2, 41
	s := newTestSetup(t, p, numPeers, degree)

	a, b := field.Element(3), field.Element(9)
	sharesA := s.share(t, a)
	sharesB := s.share(t, b)

	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewMultiplication(sharesA[i], sharesB[i], numPeers, true)
	}

	const crashed = numPeers - 1
	const maxRounds = 2000
	round := 0
	for ; round < maxRounds; round++ {
		allDone := true
		for i, op := range ops {
			if i == crashed || op.IsComplete() {
				continue
			}
			if err := op.DoStep(s.ctxs[i]); err != nil {
				t.Fatalf("peer %d round %d: %v", i, round, err)
			}
			if !op.IsComplete() {
				allDone = false
			}
		}
		if allDone {
			break
		}
		// Exchange among survivors; the crashed peer never sends or
		// receives, exactly as OperationSet.SetMissing models it.
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
	}
	if round == maxRounds {
		t.Fatalf("operation did not complete within %d rounds", maxRounds)
	}

	var shares []field.Element
	for i, op := range ops {
		if i == crashed {
			shares = append(shares, shamir.MissingShare)
			continue
		}
		shares = append(shares, op.FinalResult()[0])
	}
	got := s.reconstruct(t, shares, s.ctxs[0].MultThreshold())
	if got != s.f.Mul(a, b) {
		t.Fatalf("Multiplication with one crashed peer = %d, want %d", got, s.f.Mul(a, b))
	}
}

func TestReconstructionRoundTrip(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	secret := field.Element(55)
	shares := s.share(t, secret)

	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewReconstruction(shares[i], numPeers, s.ctxs[0].Threshold())
	}
	results := runOps(t, s, ops)
	for i, r := range results {
		if r[0] != secret {
			t.Fatalf("peer %d reconstructed %d, want %d", i, r[0], secret)
		}
	}
}

func TestGenerateRandomNumberReconstructsInField(t *testing.T) {
	const numPeers, degree, p = 5, 2, 67
	s := newTestSetup(t, p, numPeers, degree)

	ops := make([]Operation, numPeers)
	for i := range ops {
		ops[i] = NewGenerateRandomNumber(numPeers)
	}
	results := runOps(t, s, ops)
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].Threshold())
	if uint64(got) >= p {
		t.Fatalf("generated number %d out of field range", got)
	}
}

func TestGenerateRandomBitProducesABit(t *testing.T) {
	const numPeers, degree, p = 5, 2, 41
	s := newTestSetup(t, p, numPeers, degree)

	results := runUntilSuccess(t, s, 25, func() []Operation {
		ops := make([]Operation, numPeers)
		for i := range ops {
			ops[i] = NewGenerateRandomBit(numPeers, false)
		}
		return ops
	})
	got := s.reconstruct(t, column(results, 0), s.ctxs[0].MultThreshold())
	if got != 0 && got != 1 {
		t.Fatalf("GenerateRandomBit produced %d, want 0 or 1", got)
	}
}

func TestGenerateRandomBitFailureSentinelDistinctFromMissingShare(t *testing.T) {
	if IsFailure([]field.Element{}) {
		t.Fatal("empty result must not read as failure")
	}
	if !IsFailure([]field.Element{FailureResult}) {
		t.Fatal("single FailureResult element must read as failure")
	}
	if uint64(FailureResult) == uint64(shamir.MissingShare) {
		t.Fatal("FailureResult and shamir.MissingShare must be distinct sentinels")
	}
}

func TestPredicateCacheHitsAndMisses(t *testing.T) {
	c := NewPredicateCache()
	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache must miss")
	}
	c.Set("a", 42)
	v, ok := c.Get("a")
	if !ok || v != 42 {
		t.Fatalf("Get(a)=%d,%v want 42,true", v, ok)
	}
	// Empty key never caches.
	c.Set("", 99)
	if _, ok := c.Get(""); ok {
		t.Fatal("empty key must never hit")
	}
}
