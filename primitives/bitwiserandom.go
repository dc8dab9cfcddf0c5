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

// GenerateBitwiseRandomNumber generates ceil(log2 p) uniformly random
// shared bits in parallel, then bitwise-compares the number they form
// against p: if it is smaller, the bit shares are returned; otherwise
// the operation fails with the same FailureResult sentinel used by
// GenerateRandomBit. Any constituent bit failing also fails the whole
// operation.
type GenerateBitwiseRandomNumber struct {
	Base

	numPeers int
	syncSh   bool
	n        int

	phase int

	bits      []*GenerateRandomBit
	bitShares []field.Element

	cmp      *BitwiseLessThan
	reconCmp *Reconstruction
}

// NewGenerateBitwiseRandomNumber creates a new bitwise random number
// generation attempt.
func NewGenerateBitwiseRandomNumber(numPeers int, synchronizeShares bool) *GenerateBitwiseRandomNumber {
	return &GenerateBitwiseRandomNumber{
		Base:     NewBase(numPeers),
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// NewGenerateBitwiseRandomNumberFromBits builds a bitwise random
// number attempt directly from already-drawn bit shares, skipping the
// per-attempt bit generation phase: the caller (typically
// BatchGenerateBitwiseRandomNumbers, pooling raw GenerateRandomBit
// successes across a whole batch) has already produced them.
func NewGenerateBitwiseRandomNumberFromBits(bits []field.Element, numPeers int, synchronizeShares bool) *GenerateBitwiseRandomNumber {
	return &GenerateBitwiseRandomNumber{
		Base:      NewBase(numPeers),
		numPeers:  numPeers,
		syncSh:    synchronizeShares,
		n:         len(bits),
		bitShares: append([]field.Element(nil), bits...),
		phase:     1,
	}
}

// DoStep implements Operation.
func (g *GenerateBitwiseRandomNumber) DoStep(ctx *StepContext) error {
	switch g.phase {
	case 0:
		return g.stepBits(ctx)
	case 1:
		return g.stepCompare(ctx)
	case 2:
		return g.stepReconstruct(ctx)
	default:
		return fmt.Errorf("%w: bitwise random %d: invalid phase %d", ErrPrimitives, g.id, g.phase)
	}
}

func (g *GenerateBitwiseRandomNumber) stepBits(ctx *StepContext) error {
	if g.bits == nil {
		g.n = ctx.Field.BitLen()
		g.bits = make([]*GenerateRandomBit, g.n)
		for i := range g.bits {
			g.bits[i] = NewGenerateRandomBit(g.numPeers, g.syncSh)
		}
	}
	var active []Operation
	for _, b := range g.bits {
		if !b.IsComplete() {
			active = append(active, b)
		}
	}
	g.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("bitwise random %d: %w", g.id, err)
	}
	if !done {
		return nil
	}

	g.bitShares = make([]field.Element, g.n)
	for i, b := range g.bits {
		if IsFailure(b.FinalResult()) {
			g.children = nil
			g.result = []field.Element{FailureResult}
			return nil
		}
		g.bitShares[i] = b.FinalResult()[0]
	}
	g.children = nil
	g.phase = 1
	return nil
}

func (g *GenerateBitwiseRandomNumber) stepCompare(ctx *StepContext) error {
	if g.cmp == nil {
		pBits := ctx.Field.Bits(ctx.Field.P)
		var err error
		g.cmp, err = NewBitwiseLessThan(SecretBits(g.bitShares), PublicBits(pBits), g.numPeers, g.syncSh)
		if err != nil {
			return fmt.Errorf("bitwise random %d: %w", g.id, err)
		}
		g.children = []Operation{g.cmp}
	}
	if err := g.cmp.DoStep(ctx); err != nil {
		return fmt.Errorf("bitwise random %d: %w", g.id, err)
	}
	if !g.cmp.IsComplete() {
		return nil
	}
	g.children = nil
	g.phase = 2
	return nil
}

func (g *GenerateBitwiseRandomNumber) stepReconstruct(ctx *StepContext) error {
	if g.reconCmp == nil {
		g.reconCmp = NewReconstruction(g.cmp.FinalResult()[0], g.numPeers, ctx.Threshold())
		g.children = []Operation{g.reconCmp}
		return g.reconCmp.DoStep(ctx)
	}
	if !g.reconCmp.IsComplete() {
		return g.reconCmp.DoStep(ctx)
	}

	lessThanP := g.reconCmp.FinalResult()[0]
	g.children = nil
	g.clearOutbound()
	if lessThanP == 1 {
		g.result = append([]field.Element(nil), g.bitShares...)
	} else {
		g.result = []field.Element{FailureResult}
	}
	return nil
}
