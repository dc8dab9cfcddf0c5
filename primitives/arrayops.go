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

// ArrayMultiplication multiplies two equal-length arrays of
// secret-shared values elementwise, running every pair's
// Multiplication concurrently in a single round-optimized schedule.
type ArrayMultiplication struct {
	Base

	a, b     []field.Element
	numPeers int
	syncSh   bool

	muls []*Multiplication
}

// NewArrayMultiplication creates an elementwise multiplication of a
// and b, which must have the same length.
func NewArrayMultiplication(a, b []field.Element, numPeers int, synchronizeShares bool) (*ArrayMultiplication, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: array multiplication: mismatched lengths %d != %d", ErrProtocol, len(a), len(b))
	}
	return &ArrayMultiplication{
		Base:     NewBase(numPeers),
		a:        a,
		b:        b,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}, nil
}

// DoStep implements Operation.
func (a *ArrayMultiplication) DoStep(ctx *StepContext) error {
	if a.muls == nil {
		a.muls = make([]*Multiplication, len(a.a))
		for i := range a.muls {
			a.muls[i] = NewMultiplication(a.a[i], a.b[i], a.numPeers, a.syncSh)
		}
	}
	var active []Operation
	for _, m := range a.muls {
		if !m.IsComplete() {
			active = append(active, m)
		}
	}
	a.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("array multiplication %d: %w", a.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(a.muls))
	for i, m := range a.muls {
		out[i] = m.FinalResult()[0]
	}
	a.children = nil
	a.clearOutbound()
	a.result = out
	return nil
}

// ArrayPower raises each element of a secret-shared array to the same
// public exponent, one Power sub-operation per element, all advancing
// concurrently.
type ArrayPower struct {
	Base

	values   []field.Element
	exponent uint64
	numPeers int
	syncSh   bool

	pows []*Power
}

// NewArrayPower creates an elementwise exponentiation of values by
// the shared public exponent.
func NewArrayPower(values []field.Element, exponent uint64, numPeers int, synchronizeShares bool) *ArrayPower {
	return &ArrayPower{
		Base:     NewBase(numPeers),
		values:   values,
		exponent: exponent,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// DoStep implements Operation.
func (a *ArrayPower) DoStep(ctx *StepContext) error {
	if a.pows == nil {
		a.pows = make([]*Power, len(a.values))
		for i := range a.pows {
			a.pows[i] = NewPower(a.values[i], a.exponent, a.numPeers, a.syncSh)
		}
	}
	var active []Operation
	for _, p := range a.pows {
		if !p.IsComplete() {
			active = append(active, p)
		}
	}
	a.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("array power %d: %w", a.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(a.pows))
	for i, p := range a.pows {
		out[i] = p.FinalResult()[0]
	}
	a.children = nil
	a.clearOutbound()
	a.result = out
	return nil
}

// ArrayEqual tests a secret-shared array elementwise against a
// parallel array, one Equal sub-operation per element.
type ArrayEqual struct {
	Base

	a, b     []field.Element
	numPeers int
	syncSh   bool

	eqs []*Equal
}

// NewArrayEqual creates an elementwise equality test of a and b,
// which must have the same length.
func NewArrayEqual(a, b []field.Element, numPeers int, synchronizeShares bool) (*ArrayEqual, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: array equal: mismatched lengths %d != %d", ErrProtocol, len(a), len(b))
	}
	return &ArrayEqual{
		Base:     NewBase(numPeers),
		a:        a,
		b:        b,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}, nil
}

// DoStep implements Operation.
func (a *ArrayEqual) DoStep(ctx *StepContext) error {
	if a.eqs == nil {
		a.eqs = make([]*Equal, len(a.a))
		for i := range a.eqs {
			a.eqs[i] = NewEqual(a.a[i], a.b[i], a.numPeers, a.syncSh)
		}
	}
	var active []Operation
	for _, e := range a.eqs {
		if !e.IsComplete() {
			active = append(active, e)
		}
	}
	a.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("array equal %d: %w", a.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(a.eqs))
	for i, e := range a.eqs {
		out[i] = e.FinalResult()[0]
	}
	a.children = nil
	a.clearOutbound()
	a.result = out
	return nil
}

// ArrayProduct computes the Product of each row of a jagged array of
// secret-shared values, one independent Product per row, all
// advancing concurrently so the wall-clock cost is the tallest row's
// ceil(log2 len) rounds rather than the sum over rows.
type ArrayProduct struct {
	Base

	rows     [][]field.Element
	numPeers int
	syncSh   bool

	products []*Product
}

// NewArrayProduct creates a batch of Product operations, one per row.
func NewArrayProduct(rows [][]field.Element, numPeers int, synchronizeShares bool) *ArrayProduct {
	return &ArrayProduct{
		Base:     NewBase(numPeers),
		rows:     rows,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}
}

// DoStep implements Operation.
func (a *ArrayProduct) DoStep(ctx *StepContext) error {
	if a.products == nil {
		a.products = make([]*Product, len(a.rows))
		for i := range a.products {
			a.products[i] = NewProduct(a.rows[i], a.numPeers, a.syncSh)
		}
	}
	var active []Operation
	for _, p := range a.products {
		if !p.IsComplete() {
			active = append(active, p)
		}
	}
	a.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("array product %d: %w", a.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(a.products))
	for i, p := range a.products {
		out[i] = p.FinalResult()[0]
	}
	a.children = nil
	a.clearOutbound()
	a.result = out
	return nil
}
