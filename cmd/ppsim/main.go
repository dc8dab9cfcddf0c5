//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command ppsim runs a small in-process simulation of the privacy-peer
// equality comparison protocol, for local testing of the primitives
// engine without any real network transport.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/primitives"
	"github.com/markkurossi/sepia/shamir"
)

// newDeterministicReader wraps a seeded math/rand source as an
// io.Reader, used only by this demo CLI so that repeated runs with
// the same seed are reproducible; the engine's own default random
// source (primitives.NewRandomSource) uses crypto/rand instead.
func newDeterministicReader(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func main() {
	prime := flag.Uint64("p", (1<<31)-19, "Prime field size")
	numPeers := flag.Int("m", 3, "Number of privacy peers")
	degree := flag.Int("t", -1, "Polynomial degree (-1: floor((m-1)/2))")
	a := flag.Uint64("a", 123456, "First secret input")
	b := flag.Uint64("b", 123456, "Second secret input")
	c := flag.Uint64("c", 654321, "Third secret input")
	verbose := flag.Bool("v", false, "Verbose logging")
	synchronize := flag.Bool("sync", false, "Enable share-synchronization safeguard")
	flag.Parse()

	cfg := primitives.Config{
		PrimeFieldSize:          *prime,
		PolynomialDegreeT:       *degree,
		NumPrivacyPeers:         *numPeers,
		MyPrivacyPeerIndex:      1,
		ParallelOperationsCount: 0,
		SynchronizeShares:       *synchronize,
		RandomAlgorithm:         "default",
	}
	t, err := cfg.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	f := field.New(*prime)
	scheme, err := shamir.NewScheme(f, *numPeers, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad sharing scheme: %v\n", err)
		os.Exit(1)
	}

	results, err := run(f, scheme, *numPeers, *a, *b, *c, *synchronize, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("equal(a,b) = %d\n", results[0])
	fmt.Printf("equal(a,c) = %d\n", results[1])
	fmt.Printf("equal(b,c) = %d\n", results[2])
}

// run shares a, b, c across numPeers privacy peers, schedules the
// three pairwise equality comparisons on every peer, and returns the
// reconstructed results.
func run(f *field.Field, scheme *shamir.Scheme, numPeers int, a, b, c uint64, synchronize, verbose bool) ([3]field.Element, error) {
	rnd := newDeterministicReader(1)
	sharesA, err := scheme.Share(field.Element(a%f.P), rnd, -1)
	if err != nil {
		return [3]field.Element{}, err
	}
	sharesB, err := scheme.Share(field.Element(b%f.P), rnd, -1)
	if err != nil {
		return [3]field.Element{}, err
	}
	sharesC, err := scheme.Share(field.Element(c%f.P), rnd, -1)
	if err != nil {
		return [3]field.Element{}, err
	}

	messengers := primitives.NewMemMessengers(numPeers)
	var wg sync.WaitGroup
	finals := make([][3]field.Element, numPeers)
	errs := make([]error, numPeers)

	for i := 0; i < numPeers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var logger *log.Logger
			if verbose {
				logger = log.New(os.Stderr, "", 0)
			}
			ctx := &primitives.StepContext{
				Scheme:   scheme,
				Field:    f,
				Rand:     newDeterministicReader(int64(i + 2)),
				MyIndex:  i,
				NumPeers: numPeers,
				Cache:    primitives.NewPredicateCache(),
				Degree:   scheme.Degree,
			}
			d := primitives.NewDriver(messengers[i], ctx, logger)

			eqAB := primitives.NewEqual(sharesA[i], sharesB[i], numPeers, synchronize)
			eqAC := primitives.NewEqual(sharesA[i], sharesC[i], numPeers, synchronize)
			eqBC := primitives.NewEqual(sharesB[i], sharesC[i], numPeers, synchronize)

			result, err := d.Run([]primitives.Operation{eqAB, eqAC, eqBC}, 0)
			if err != nil {
				errs[i] = err
				return
			}
			finals[i] = [3]field.Element{
				result.PerOperation[0][0],
				result.PerOperation[1][0],
				result.PerOperation[2][0],
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return [3]field.Element{}, err
		}
	}

	var out [3]field.Element
	for op := 0; op < 3; op++ {
		shares := make([]field.Element, numPeers)
		for i := 0; i < numPeers; i++ {
			shares[i] = finals[i][op]
		}
		v, err := scheme.Reconstruct(shares, scheme.Degree+1)
		if err != nil {
			return [3]field.Element{}, err
		}
		out[op] = v
	}
	return out, nil
}
