//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"

	"github.com/markkurossi/sepia/field"
)

// BatchGenerateBitwiseRandomNumbers produces at least n bitwise-shared
// random numbers, retrying until the target is reached. Each round it
// draws a flat pool of GenerateRandomBit attempts sized by
// estimateAttempts, assembles as many complete bitwise-number groups
// as the pool of successful bits allows, and recurses for whatever
// shortfall remains — a single failed bit only costs that bit, not the
// whole group it would have landed in.
type BatchGenerateBitwiseRandomNumbers struct {
	Base

	n        int
	numPeers int
	syncSh   bool

	phase int

	bitAttempts []*GenerateRandomBit
	pool        []field.Element

	groups []*GenerateBitwiseRandomNumber

	produced  [][]field.Element
	shortfall *BatchGenerateBitwiseRandomNumbers

	retries int
}

// NewBatchGenerateBitwiseRandomNumbers creates a batch generation of
// n bitwise-shared random numbers.
func NewBatchGenerateBitwiseRandomNumbers(n, numPeers int, synchronizeShares bool) *BatchGenerateBitwiseRandomNumbers {
	return &BatchGenerateBitwiseRandomNumbers{
		Base:     NewBase(numPeers),
		n:        n,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// DoStep implements Operation.
func (b *BatchGenerateBitwiseRandomNumbers) DoStep(ctx *StepContext) error {
	if b.n <= 0 {
		b.result = []field.Element{}
		return nil
	}

	switch b.phase {
	case 0:
		return b.stepBits(ctx)
	case 1:
		return b.stepGroups(ctx)
	case 2:
		return b.stepShortfall(ctx)
	default:
		return fmt.Errorf("%w: batch bitwise random %d: invalid phase %d", ErrPrimitives, b.id, b.phase)
	}
}

// stepBits draws a flat pool of raw random-bit attempts, sized so that
// the expected number of successes covers n bitwise-number groups
// worth of bits.
func (b *BatchGenerateBitwiseRandomNumbers) stepBits(ctx *StepContext) error {
	if b.bitAttempts == nil {
		l := ctx.Field.BitLen()
		groupAttempts := estimateAttempts(b.n, ctx.Field)
		count := groupAttempts * l
		b.bitAttempts = make([]*GenerateRandomBit, count)
		for i := range b.bitAttempts {
			b.bitAttempts[i] = NewGenerateRandomBit(b.numPeers, b.syncSh)
		}
	}

	var active []Operation
	for _, a := range b.bitAttempts {
		if !a.IsComplete() {
			active = append(active, a)
		}
	}
	b.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("batch bitwise random %d: %w", b.id, err)
	}
	if !done {
		return nil
	}

	b.pool = b.pool[:0]
	for _, a := range b.bitAttempts {
		r := a.FinalResult()
		if !IsFailure(r) {
			b.pool = append(b.pool, r[0])
		}
	}
	b.bitAttempts = nil
	b.children = nil

	l := ctx.Field.BitLen()
	groupCount := len(b.pool) / l
	b.groups = make([]*GenerateBitwiseRandomNumber, groupCount)
	for i := range b.groups {
		bits := b.pool[i*l : (i+1)*l]
		b.groups[i] = NewGenerateBitwiseRandomNumberFromBits(bits, b.numPeers, b.syncSh)
	}
	b.phase = 1
	return nil
}

// stepGroups runs the bitwise-number-vs-p comparison for every group
// assembled from the pooled bits, then checks whether enough of them
// succeeded to meet n.
func (b *BatchGenerateBitwiseRandomNumbers) stepGroups(ctx *StepContext) error {
	var active []Operation
	for _, g := range b.groups {
		if !g.IsComplete() {
			active = append(active, g)
		}
	}
	b.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("batch bitwise random %d: %w", b.id, err)
	}
	if !done {
		return nil
	}

	for _, g := range b.groups {
		r := g.FinalResult()
		if !IsFailure(r) {
			b.produced = append(b.produced, r)
		}
	}
	b.groups = nil
	b.children = nil

	if len(b.produced) >= b.n {
		b.produced = b.produced[:b.n]
		b.finish()
		return nil
	}

	b.retries++
	b.shortfall = NewBatchGenerateBitwiseRandomNumbers(b.n-len(b.produced), b.numPeers, b.syncSh)
	b.children = []Operation{b.shortfall}
	b.phase = 2
	return b.shortfall.DoStep(ctx)
}

// stepShortfall drives the nested retry batch that covers whatever
// shortfall stepGroups left, then merges its results in.
func (b *BatchGenerateBitwiseRandomNumbers) stepShortfall(ctx *StepContext) error {
	if !b.shortfall.IsComplete() {
		return b.shortfall.DoStep(ctx)
	}
	b.retries += b.shortfall.Retries()

	flat := b.shortfall.FinalResult()
	l := ctx.Field.BitLen()
	for i := 0; i*l < len(flat); i++ {
		b.produced = append(b.produced, flat[i*l:(i+1)*l])
	}
	b.shortfall = nil
	b.children = nil
	b.finish()
	return nil
}

func (b *BatchGenerateBitwiseRandomNumbers) finish() {
	var flat []field.Element
	for _, bits := range b.produced {
		flat = append(flat, bits...)
	}
	b.clearOutbound()
	b.result = flat
}

// Retries reports how many shortfall rounds were needed, mainly for
// tests and round-statistics reporting.
func (b *BatchGenerateBitwiseRandomNumbers) Retries() int {
	return b.retries
}

// estimateAttempts estimates the number of bitwise-number-sized groups
// needed to produce `remaining` more successes, following spec's
// n * (p/2^L)^-1 * (p/(p-2)) scaling; callers multiply by
// ceil(log2 p) to turn this into a flat raw-bit attempt count.
func estimateAttempts(remaining int, f *field.Field) int {
	if remaining <= 0 {
		return 0
	}
	l := f.BitLen()
	p := f.P
	numer := uint64(1) << uint(l)

	est := (uint64(remaining)*numer + p - 1) / p
	if p > 2 {
		est = (est*p + (p - 2) - 1) / (p - 2)
	}
	if est < uint64(remaining) {
		est = uint64(remaining)
	}
	return int(est) + 1
}
