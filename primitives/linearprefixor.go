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

// LinearPrefixOr computes the prefix-OR of a shared bit vector x,
// most-significant bit first: z[0] = x[0], z[i] = z[i-1] + x[i] -
// z[i-1]*x[i]. The cross terms are computed one at a time with a
// single Multiplication sub-operation per bit, sequentially, matching
// the reference comparison primitives' round budget.
type LinearPrefixOr struct {
	Base

	x                 []field.Element
	numPeers          int
	synchronizeShares bool

	z   []field.Element
	mul *Multiplication
}

// NewLinearPrefixOr creates a prefix-OR of x (MSB first).
func NewLinearPrefixOr(x []field.Element, numPeers int, synchronizeShares bool) *LinearPrefixOr {
	return &LinearPrefixOr{
		Base:              NewBase(numPeers),
		x:                 x,
		numPeers:          numPeers,
		synchronizeShares: synchronizeShares,
		z:                 make([]field.Element, len(x)),
	}
}

// DoStep implements Operation.
func (l *LinearPrefixOr) DoStep(ctx *StepContext) error {
	if len(l.x) == 0 {
		l.result = nil
		return fmt.Errorf("%w: linear prefix-or %d: empty input", ErrProtocol, l.id)
	}

	i := l.step
	if i == 0 {
		l.z[0] = l.x[0]
		l.step++
		if len(l.x) == 1 {
			l.result = append([]field.Element(nil), l.z...)
		}
		return nil
	}
	if i >= len(l.x) {
		return fmt.Errorf("%w: linear prefix-or %d: invalid step %d", ErrPrimitives, l.id, l.step)
	}

	if l.mul == nil {
		l.mul = NewMultiplication(l.z[i-1], l.x[i], l.numPeers, l.synchronizeShares)
		l.children = []Operation{l.mul}
		return l.mul.DoStep(ctx)
	}
	if !l.mul.IsComplete() {
		return l.mul.DoStep(ctx)
	}

	cross := l.mul.FinalResult()[0]
	l.z[i] = ctx.Field.Sub(ctx.Field.Add(l.z[i-1], l.x[i]), cross)
	l.mul = nil
	l.children = nil
	l.step++

	if l.step >= len(l.x) {
		l.result = append([]field.Element(nil), l.z...)
	}
	return nil
}
