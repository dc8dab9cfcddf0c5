//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/shamir"
)

// testSetup bundles the field, sharing scheme and one StepContext per
// privacy peer that every primitives test drives its operations
// through.
type testSetup struct {
	f        *field.Field
	scheme   *shamir.Scheme
	ctxs     []*StepContext
	numPeers int
}

func newTestSetup(t *testing.T, p uint64, numPeers, degree int) *testSetup {
	t.Helper()
	f := field.New(p)
	scheme, err := shamir.NewScheme(f, numPeers, degree)
	if err != nil {
		t.Fatalf("shamir.NewScheme: %v", err)
	}
	ctxs := make([]*StepContext, numPeers)
	for i := range ctxs {
		ctxs[i] = &StepContext{
			Scheme:   scheme,
			Field:    f,
			Rand:     rand.Reader,
			MyIndex:  i,
			NumPeers: numPeers,
			Cache:    NewPredicateCache(),
			Degree:   degree,
		}
	}
	return &testSetup{f: f, scheme: scheme, ctxs: ctxs, numPeers: numPeers}
}

func (s *testSetup) share(t *testing.T, secret field.Element) []field.Element {
	t.Helper()
	shares, err := s.scheme.Share(secret, rand.Reader, -1)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	return shares
}

func (s *testSetup) reconstruct(t *testing.T, shares []field.Element, threshold int) field.Element {
	t.Helper()
	v, err := s.scheme.Reconstruct(shares, threshold)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	return v
}

// column extracts the i'th element of every peer's result vector,
// e.g. column(results, 0) gathers peer 0..m-1's share of the first
// output element for reconstruction.
func column(results [][]field.Element, i int) []field.Element {
	out := make([]field.Element, len(results))
	for p, r := range results {
		out[p] = r[i]
	}
	return out
}

// runOps drives one Operation per privacy peer to completion,
// exchanging shares directly between operation trees (bypassing
// OperationSet and Messenger entirely) after every round. ops[i] must
// be peer i's own operation instance, built from peer i's own share
// of the inputs.
func runOps(t *testing.T, s *testSetup, ops []Operation) [][]field.Element {
	t.Helper()
	const maxRounds = 2000
	round := 0
	for ; round < maxRounds; round++ {
		allDone := true
		for i, op := range ops {
			if op.IsComplete() {
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
		exchangeRoundDirect(ops, s.numPeers)
	}
	if round == maxRounds {
		t.Fatalf("operations did not complete within %d rounds", maxRounds)
	}

	out := make([][]field.Element, len(ops))
	for i, op := range ops {
		out[i] = op.FinalResult()
	}
	return out
}

// exchangeRoundDirect exchanges every pair of peers' outbound payload
// for the round just stepped, the same pre-order traversal the
// Scheduler/Driver use, applied directly to a bare Operation pair
// instead of through an OperationSet.
func exchangeRoundDirect(ops []Operation, numPeers int) {
	for i := 0; i < numPeers; i++ {
		for j := i + 1; j < numPeers; j++ {
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

// runUntilSuccess repeats a randomized operation (builder constructs a
// fresh per-peer operation set each attempt) until it produces a
// non-failure result, bounding the number of attempts generously
// above what the protocol's documented failure rate would ever need.
func runUntilSuccess(t *testing.T, s *testSetup, maxAttempts int, build func() []Operation) [][]field.Element {
	t.Helper()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ops := build()
		results := runOps(t, s, ops)
		if !IsFailure(results[0]) {
			return results
		}
	}
	t.Fatalf("operation did not succeed within %d attempts", maxAttempts)
	return nil
}
