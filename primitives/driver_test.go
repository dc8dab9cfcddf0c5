//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"sync"
	"testing"

	"github.com/markkurossi/sepia/field"
)

// TestDriverThreePeersCompareTwoInputs runs spec scenario 1 end to
// end: three privacy peers, m=3, t=1, p=2^31-19. Input peer A shares
// 123456, input peer B shares 123456, input peer C shares 654321.
// Scheduling equal(a,b), equal(a,c), equal(b,c) must reconstruct to
// 1, 0, 0 once every peer's Driver finishes its round loop over
// in-memory messengers.
func TestDriverThreePeersCompareTwoInputs(t *testing.T) {
	const numPeers, degree, p = 3, 1, 2147483629 // 2^31-19
	s := newTestSetup(t, p, numPeers, degree)

	a := s.share(t, 123456)
	b := s.share(t, 123456)
	c := s.share(t, 654321)

	messengers := NewMemMessengers(numPeers)

	results := make([][][]field.Element, numPeers)
	var wg sync.WaitGroup
	wg.Add(numPeers)
	errs := make([]error, numPeers)
	for i := 0; i < numPeers; i++ {
		i := i
		go func() {
			defer wg.Done()
			driver := NewDriver(messengers[i], s.ctxs[i], nil)
			ops := []Operation{
				NewEqual(a[i], b[i], numPeers, false),
				NewEqual(a[i], c[i], numPeers, false),
				NewEqual(b[i], c[i], numPeers, false),
			}
			res, err := driver.Run(ops, 0)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res.PerOperation
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("peer %d: %v", i, err)
		}
	}

	want := []field.Element{1, 0, 0}
	for op := 0; op < 3; op++ {
		shares := make([]field.Element, numPeers)
		for i := 0; i < numPeers; i++ {
			shares[i] = results[i][op][0]
		}
		got := s.reconstruct(t, shares, s.ctxs[0].Threshold())
		if got != want[op] {
			t.Fatalf("equal op %d = %d, want %d", op, got, want[op])
		}
	}
}

// TestDriverSurvivesCrashedPeer exercises the driver's "null message
// becomes a dummy, missing-share sentinel propagates" path (spec.md
// §4.E): peer 2 of four never takes part (every survivor's messenger
// marks it down before the first round), and the surviving three
// (t=1, needing t+1=2 shares) must still reconstruct a correct
// Reconstruction result.
func TestDriverSurvivesCrashedPeer(t *testing.T) {
	const numPeers, degree, p = 4, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	secret := field.Element(41)
	shares := s.share(t, secret)

	messengers := NewMemMessengers(numPeers)
	const crashed = 2
	for i := 0; i < numPeers; i++ {
		if i == crashed {
			continue
		}
		messengers[i].MarkDown(crashed)
	}

	results := make([][][]field.Element, numPeers)
	var wg sync.WaitGroup
	survivors := 0
	errs := make([]error, numPeers)
	for i := 0; i < numPeers; i++ {
		if i == crashed {
			continue
		}
		survivors++
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			driver := NewDriver(messengers[i], s.ctxs[i], nil)
			ops := []Operation{NewReconstruction(shares[i], numPeers, s.ctxs[0].Threshold())}
			res, err := driver.Run(ops, 0)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res.PerOperation
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if i != crashed && err != nil {
			t.Fatalf("peer %d: %v", i, err)
		}
	}
	for i := 0; i < numPeers; i++ {
		if i == crashed {
			continue
		}
		if results[i][0][0] != secret {
			t.Fatalf("peer %d reconstructed %d, want %d", i, results[i][0][0], secret)
		}
	}
}

// TestDriverPregenerateBitsFeedsLessThan checks that Driver.Run's
// pregeneration pass (spec.md §4.E step 1) supplies every scheduled
// LessThan with bits ahead of the main loop, rather than each one
// falling back to its own inline GenerateBitwiseRandomNumber.
func TestDriverPregenerateBitsFeedsLessThan(t *testing.T) {
	const numPeers, degree, p = 3, 1, 67
	s := newTestSetup(t, p, numPeers, degree)

	av := s.share(t, 5)
	bv := s.share(t, 9)

	messengers := NewMemMessengers(numPeers)
	results := make([][][]field.Element, numPeers)
	var wg sync.WaitGroup
	wg.Add(numPeers)
	errs := make([]error, numPeers)
	for i := 0; i < numPeers; i++ {
		i := i
		go func() {
			defer wg.Done()
			driver := NewDriver(messengers[i], s.ctxs[i], nil)
			ops := []Operation{NewLessThan(av[i], bv[i], numPeers, false, "a5", "b9", "a5b9")}
			res, err := driver.Run(ops, 0)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res.PerOperation
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("peer %d: %v", i, err)
		}
	}

	shares := make([]field.Element, numPeers)
	for i := 0; i < numPeers; i++ {
		shares[i] = results[i][0][0]
	}
	got := s.reconstruct(t, shares, s.ctxs[0].Threshold())
	if got != 1 {
		t.Fatalf("less-than(5,9) = %d, want 1", got)
	}

	for i := 0; i < numPeers; i++ {
		for _, key := range []string{"a5", "b9", "a5b9"} {
			if _, ok := s.ctxs[i].Cache.Get(key); !ok {
				t.Fatalf("peer %d: predicate cache missing key %q after pregenerated run", i, key)
			}
		}
	}
}
