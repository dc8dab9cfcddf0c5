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

// Product multiplies k secret-shared values together using a balanced
// binary tree of Multiplication sub-operations, completing in
// ceil(log2 k) rounds rather than k-1 sequential ones.
type Product struct {
	Base

	numPeers int
	syncSh   bool

	level []field.Element
	muls  []*Multiplication
}

// NewProduct creates a Product of values. values must be non-empty.
func NewProduct(values []field.Element, numPeers int, synchronizeShares bool) *Product {
	return &Product{
		Base:     NewBase(numPeers),
		numPeers: numPeers,
		syncSh:   synchronizeShares,
		level:    append([]field.Element(nil), values...),
	}
}

// DoStep implements Operation.
func (p *Product) DoStep(ctx *StepContext) error {
	if len(p.level) == 0 {
		return fmt.Errorf("%w: product %d: empty input", ErrProtocol, p.id)
	}
	if len(p.level) == 1 {
		p.clearOutbound()
		p.result = []field.Element{p.level[0]}
		return nil
	}

	pairs := len(p.level) / 2
	if p.muls == nil {
		p.muls = make([]*Multiplication, pairs)
		for i := 0; i < pairs; i++ {
			p.muls[i] = NewMultiplication(p.level[2*i], p.level[2*i+1], p.numPeers, p.syncSh)
		}
	}

	active := make([]Operation, 0, pairs)
	for _, m := range p.muls {
		if !m.IsComplete() {
			active = append(active, m)
		}
	}
	p.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("product %d: %w", p.id, err)
	}
	if !done {
		return nil
	}

	next := make([]field.Element, 0, pairs+1)
	for _, m := range p.muls {
		next = append(next, m.FinalResult()[0])
	}
	if len(p.level)%2 == 1 {
		next = append(next, p.level[len(p.level)-1])
	}
	p.level = next
	p.muls = nil
	p.children = nil

	if len(p.level) == 1 {
		p.clearOutbound()
		p.result = []field.Element{p.level[0]}
	}
	return nil
}
