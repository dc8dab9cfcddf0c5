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

// GenerateRandomBit generates a uniformly random shared bit. It
// samples a random field element r, computes and opens r², and
// combines the public root with the share of r. The protocol fails
// (by design, with probability ~1/p) whenever r turns out to be zero;
// on failure FinalResult is the single-element FailureResult sentinel
// rather than an error, since failure is an expected outcome of this
// sub-protocol, not a fault.
type GenerateRandomBit struct {
	Base

	numPeers int

	r      *GenerateRandomNumber
	rShare field.Element
	sq     *Multiplication
	recon  *Reconstruction

	synchronizeShares bool
}

// NewGenerateRandomBit creates a new random-bit generation.
func NewGenerateRandomBit(numPeers int, synchronizeShares bool) *GenerateRandomBit {
	return &GenerateRandomBit{
		Base:              NewBase(numPeers),
		numPeers:          numPeers,
		synchronizeShares: synchronizeShares,
	}
}

// DoStep implements Operation.
func (g *GenerateRandomBit) DoStep(ctx *StepContext) error {
	if g.r == nil {
		g.r = NewGenerateRandomNumber(g.numPeers)
		g.children = []Operation{g.r}
		return g.r.DoStep(ctx)
	}
	if !g.r.IsComplete() {
		return g.r.DoStep(ctx)
	}

	if g.sq == nil {
		g.rShare = g.r.FinalResult()[0]
		g.sq = NewMultiplication(g.rShare, g.rShare, g.numPeers, g.synchronizeShares)
		g.children = []Operation{g.sq}
		return g.sq.DoStep(ctx)
	}
	if !g.sq.IsComplete() {
		return g.sq.DoStep(ctx)
	}

	if g.recon == nil {
		g.recon = NewReconstruction(g.sq.FinalResult()[0], g.numPeers, ctx.MultThreshold())
		g.children = []Operation{g.recon}
		return g.recon.DoStep(ctx)
	}
	if !g.recon.IsComplete() {
		return g.recon.DoStep(ctx)
	}

	rSquared := g.recon.FinalResult()[0]
	if rSquared == 0 {
		g.children = nil
		g.result = []field.Element{FailureResult}
		return nil
	}
	root, ok := ctx.Field.Sqrt(rSquared)
	if !ok {
		// r was not actually a field element whose square has a
		// root, which cannot happen for a correctly computed
		// rSquared; treat it as the same low-probability failure.
		g.children = nil
		g.result = []field.Element{FailureResult}
		return nil
	}
	rootInv, err := ctx.Field.Inverse(root)
	if err != nil {
		return fmt.Errorf("%w: random bit %d: %v", ErrPrimitives, g.id, err)
	}
	twoInv, err := ctx.Field.Inverse(2)
	if err != nil {
		return fmt.Errorf("%w: random bit %d: %v", ErrPrimitives, g.id, err)
	}
	term := ctx.Field.Mul(rootInv, g.rShare)
	g.children = nil
	g.result = []field.Element{ctx.Field.Mul(ctx.Field.Add(term, 1), twoInv)}
	return nil
}
