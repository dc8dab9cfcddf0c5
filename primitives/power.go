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

// Power raises a secret-shared base to a public exponent using
// right-to-left binary exponentiation. Each round squares the running
// base accumulator and, independently, multiplies the running result
// by the pre-round accumulator when the corresponding exponent bit is
// set — both multiplications consume only values fixed before the
// round started, so they run as two concurrent Multiplication
// sub-operations rather than a dependent chain.
type Power struct {
	Base

	base     field.Element
	exponent uint64
	numPeers int
	syncSh   bool

	bits []bool // exponent bits, LSB first
	idx  int

	baseAcc    field.Element
	acc        field.Element
	accLive    bool

	sqMul  *Multiplication
	mulMul *Multiplication
}

// NewPower creates a Power operation computing base^exponent.
func NewPower(base field.Element, exponent uint64, numPeers int, synchronizeShares bool) *Power {
	return &Power{
		Base:     NewBase(numPeers),
		base:     base,
		exponent: exponent,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// DoStep implements Operation.
func (p *Power) DoStep(ctx *StepContext) error {
	if p.bits == nil {
		p.bits = exponentBits(p.exponent)
		p.baseAcc = p.base
		if len(p.bits) == 0 {
			p.clearOutbound()
			p.result = []field.Element{1}
			return nil
		}
	}

	bit := p.bits[p.idx]
	last := p.idx == len(p.bits)-1

	var active []Operation
	if bit && p.accLive && p.mulMul == nil {
		p.mulMul = NewMultiplication(p.acc, p.baseAcc, p.numPeers, p.syncSh)
	}
	if p.mulMul != nil && !p.mulMul.IsComplete() {
		active = append(active, p.mulMul)
	}
	if !last && p.sqMul == nil {
		p.sqMul = NewMultiplication(p.baseAcc, p.baseAcc, p.numPeers, p.syncSh)
	}
	if p.sqMul != nil && !p.sqMul.IsComplete() {
		active = append(active, p.sqMul)
	}
	p.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("power %d: %w", p.id, err)
	}
	if !done {
		return nil
	}

	if bit {
		if p.accLive {
			p.acc = p.mulMul.FinalResult()[0]
		} else {
			p.acc = p.baseAcc
			p.accLive = true
		}
	}
	if !last {
		p.baseAcc = p.sqMul.FinalResult()[0]
	}
	p.mulMul = nil
	p.sqMul = nil
	p.idx++
	p.children = nil

	if p.idx >= len(p.bits) {
		out := field.Element(1)
		if p.accLive {
			out = p.acc
		}
		p.clearOutbound()
		p.result = []field.Element{out}
	}
	return nil
}

// exponentBits decomposes e into its binary digits, least-significant
// first. Returns nil for e == 0.
func exponentBits(e uint64) []bool {
	var bits []bool
	for e > 0 {
		bits = append(bits, e&1 == 1)
		e >>= 1
	}
	return bits
}
