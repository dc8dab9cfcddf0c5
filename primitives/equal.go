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

// Equal computes a share of [a == b] as 1 - (a-b)^(p-1), relying on
// Fermat's little theorem: a nonzero field element raised to p-1 is
// 1, and 0^(p-1) is defined here as 0 (field.Field.Pow handles the
// zero base directly).
type Equal struct {
	Base

	a, b     field.Element
	numPeers int
	syncSh   bool

	pw *Power
}

// NewEqual creates an equality test of a and b.
func NewEqual(a, b field.Element, numPeers int, synchronizeShares bool) *Equal {
	return &Equal{
		Base:     NewBase(numPeers),
		a:        a,
		b:        b,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// DoStep implements Operation.
func (e *Equal) DoStep(ctx *StepContext) error {
	if e.pw == nil {
		diff := ctx.Field.Sub(e.a, e.b)
		e.pw = NewPower(diff, ctx.Field.P-1, e.numPeers, e.syncSh)
		e.children = []Operation{e.pw}
		return e.pw.DoStep(ctx)
	}
	if !e.pw.IsComplete() {
		if err := e.pw.DoStep(ctx); err != nil {
			return fmt.Errorf("equal %d: %w", e.id, err)
		}
		return nil
	}
	result := ctx.Field.Sub(1, e.pw.FinalResult()[0])
	e.children = nil
	e.clearOutbound()
	e.result = []field.Element{result}
	return nil
}
