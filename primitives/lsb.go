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

// LSB computes a share of the least-significant bit of a secret x. It
// masks x with a fresh bitwise-shared random number r (generating one
// if the caller does not supply r's bit shares), opens the masked
// value c = x + r, and recombines the public LSB of c with the
// private LSB of r via a bitwise-less-than of c against r — the
// Nishide-Ohta LSB extraction.
type LSB struct {
	Base

	x                 field.Element
	numPeers          int
	syncSh            bool
	randomBits        []field.Element // caller-supplied r bits, MSB first, or nil to generate
	n                 int

	phase int

	genR *GenerateBitwiseRandomNumber
	rBits []field.Element

	reconC *Reconstruction
	cShare field.Element
	c      field.Element

	bitlt *BitwiseLessThan

	combineMul *Multiplication
	intermediary field.Element
}

// NewLSB creates an LSB extraction of x. randomBits, if non-nil, must
// be a caller-supplied bitwise-shared random number's bit shares
// (MSB first, length ctx.Field.BitLen()) — typically one of the
// numbers the driver's batched pre-generation pass hands to a
// LessThan predicate via SetPreGeneratedBits.
func NewLSB(x field.Element, numPeers int, synchronizeShares bool, randomBits []field.Element) *LSB {
	return &LSB{
		Base:       NewBase(numPeers),
		x:          x,
		numPeers:   numPeers,
		syncSh:     synchronizeShares,
		randomBits: randomBits,
	}
}

// DoStep implements Operation.
func (l *LSB) DoStep(ctx *StepContext) error {
	switch l.phase {
	case 0:
		return l.stepRandom(ctx)
	case 1:
		return l.stepMaskAndOpen(ctx)
	case 2:
		return l.stepBitwiseLessThan(ctx)
	case 3:
		return l.stepCombine(ctx)
	default:
		return fmt.Errorf("%w: lsb %d: invalid phase %d", ErrPrimitives, l.id, l.phase)
	}
}

func (l *LSB) stepRandom(ctx *StepContext) error {
	if l.randomBits != nil {
		l.rBits = l.randomBits
		l.n = len(l.rBits)
		l.phase = 1
		return nil
	}
	if l.genR == nil {
		l.genR = NewGenerateBitwiseRandomNumber(l.numPeers, l.syncSh)
		l.children = []Operation{l.genR}
		return l.genR.DoStep(ctx)
	}
	if !l.genR.IsComplete() {
		return l.genR.DoStep(ctx)
	}
	if IsFailure(l.genR.FinalResult()) {
		l.children = nil
		l.result = []field.Element{FailureResult}
		return nil
	}
	l.rBits = l.genR.FinalResult()
	l.n = len(l.rBits)
	l.children = nil
	l.phase = 1
	return nil
}

func (l *LSB) stepMaskAndOpen(ctx *StepContext) error {
	if l.reconC == nil {
		number := ctx.Field.ComputeNumber(l.rBits)
		l.cShare = ctx.Field.Add(l.x, number)
		l.reconC = NewReconstruction(l.cShare, l.numPeers, ctx.Threshold())
		l.children = []Operation{l.reconC}
		return l.reconC.DoStep(ctx)
	}
	if !l.reconC.IsComplete() {
		return l.reconC.DoStep(ctx)
	}
	l.c = l.reconC.FinalResult()[0]
	l.children = nil
	l.phase = 2
	return nil
}

func (l *LSB) stepBitwiseLessThan(ctx *StepContext) error {
	if l.bitlt == nil {
		cBits := ctx.Field.Bits(uint64(l.c))
		var err error
		l.bitlt, err = NewBitwiseLessThan(PublicBits(cBits), SecretBits(l.rBits), l.numPeers, l.syncSh)
		if err != nil {
			return fmt.Errorf("lsb %d: %w", l.id, err)
		}
		l.children = []Operation{l.bitlt}
	}
	if err := l.bitlt.DoStep(ctx); err != nil {
		return fmt.Errorf("lsb %d: %w", l.id, err)
	}
	if !l.bitlt.IsComplete() {
		return nil
	}

	c0 := field.Element(uint64(l.c) & 1)
	r0 := l.rBits[l.n-1] // least-significant bit, bits are MSB-first
	cross := ctx.Field.Mul(c0, r0)
	l.intermediary = ctx.Field.Sub(ctx.Field.Add(c0, r0), ctx.Field.Mul(2, cross))

	l.children = nil
	l.phase = 3
	return nil
}

func (l *LSB) stepCombine(ctx *StepContext) error {
	bitlt := l.bitlt.FinalResult()[0]
	if l.combineMul == nil {
		l.combineMul = NewMultiplication(bitlt, l.intermediary, l.numPeers, l.syncSh)
		l.children = []Operation{l.combineMul}
		return l.combineMul.DoStep(ctx)
	}
	if !l.combineMul.IsComplete() {
		return l.combineMul.DoStep(ctx)
	}
	cross := l.combineMul.FinalResult()[0]
	result := ctx.Field.Sub(ctx.Field.Add(bitlt, l.intermediary), ctx.Field.Mul(2, cross))
	l.children = nil
	l.clearOutbound()
	l.result = []field.Element{result}
	return nil
}
