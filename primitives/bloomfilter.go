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

// Intersection computes the bitwise AND of two equal-length
// secret-shared Bloom filters. Bits are 0/1 field elements, so AND is
// exactly elementwise multiplication.
type Intersection struct {
	Base

	arrMul *ArrayMultiplication
}

// NewIntersection creates a Bloom filter intersection of a and b.
func NewIntersection(a, b []field.Element, numPeers int, synchronizeShares bool) (*Intersection, error) {
	arrMul, err := NewArrayMultiplication(a, b, numPeers, synchronizeShares)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	return &Intersection{Base: NewBase(numPeers), arrMul: arrMul}, nil
}

// DoStep implements Operation.
func (i *Intersection) DoStep(ctx *StepContext) error {
	i.children = []Operation{i.arrMul}
	if err := i.arrMul.DoStep(ctx); err != nil {
		return fmt.Errorf("intersection %d: %w", i.id, err)
	}
	if !i.arrMul.IsComplete() {
		return nil
	}
	i.children = nil
	i.clearOutbound()
	i.result = append([]field.Element(nil), i.arrMul.FinalResult()...)
	return nil
}

// Union computes the bitwise OR of two equal-length secret-shared
// Bloom filters via a[i] + b[i] - a[i]*b[i].
type Union struct {
	Base

	a, b   []field.Element
	arrMul *ArrayMultiplication
}

// NewUnion creates a Bloom filter union of a and b.
func NewUnion(a, b []field.Element, numPeers int, synchronizeShares bool) (*Union, error) {
	arrMul, err := NewArrayMultiplication(a, b, numPeers, synchronizeShares)
	if err != nil {
		return nil, fmt.Errorf("union: %w", err)
	}
	return &Union{Base: NewBase(numPeers), a: a, b: b, arrMul: arrMul}, nil
}

// DoStep implements Operation.
func (u *Union) DoStep(ctx *StepContext) error {
	u.children = []Operation{u.arrMul}
	if err := u.arrMul.DoStep(ctx); err != nil {
		return fmt.Errorf("union %d: %w", u.id, err)
	}
	if !u.arrMul.IsComplete() {
		return nil
	}
	cross := u.arrMul.FinalResult()
	out := make([]field.Element, len(u.a))
	for i := range out {
		out[i] = ctx.Field.Sub(ctx.Field.Add(u.a[i], u.b[i]), cross[i])
	}
	u.children = nil
	u.clearOutbound()
	u.result = out
	return nil
}

// Cardinality sums the bits of a secret-shared Bloom filter. Shamir
// sharing is linear, so the sum is a local computation; callers
// reconstruct the result and apply their own set-size estimator (the
// MPC layer only produces the shared bit count).
type Cardinality struct {
	Base

	bits []field.Element
}

// NewCardinality creates a Cardinality count of bits.
func NewCardinality(bits []field.Element, numPeers int) *Cardinality {
	return &Cardinality{Base: NewBase(numPeers), bits: bits}
}

// DoStep implements Operation.
func (c *Cardinality) DoStep(ctx *StepContext) error {
	var sum field.Element
	for _, b := range c.bits {
		sum = ctx.Field.Add(sum, b)
	}
	c.clearOutbound()
	c.result = []field.Element{sum}
	return nil
}

// ThresholdUnion reports, for every bit position, whether at least
// threshold of the given Bloom filters have that bit set. The
// per-position sums are local (linearity of Shamir sharing); only the
// threshold comparison needs communication, run as one LessThan per
// bit position, all concurrently.
type ThresholdUnion struct {
	Base

	filters   [][]field.Element
	threshold uint64
	numPeers  int
	syncSh    bool

	sums []field.Element
	lts  []*LessThan
}

// NewThresholdUnion creates a threshold union of filters (all the
// same length), reporting positions set in at least threshold of
// them.
func NewThresholdUnion(filters [][]field.Element, threshold uint64, numPeers int, synchronizeShares bool) (*ThresholdUnion, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: threshold union: no filters", ErrProtocol)
	}
	n := len(filters[0])
	for _, f := range filters {
		if len(f) != n {
			return nil, fmt.Errorf("%w: threshold union: mismatched filter lengths", ErrProtocol)
		}
	}
	return &ThresholdUnion{
		Base:      NewBase(numPeers),
		filters:   filters,
		threshold: threshold,
		numPeers:  numPeers,
		syncSh:    synchronizeShares,
	}, nil
}

// DoStep implements Operation.
func (t *ThresholdUnion) DoStep(ctx *StepContext) error {
	if t.lts == nil {
		n := len(t.filters[0])
		t.sums = make([]field.Element, n)
		for i := 0; i < n; i++ {
			var sum field.Element
			for _, f := range t.filters {
				sum = ctx.Field.Add(sum, f[i])
			}
			t.sums[i] = sum
		}
		t.lts = make([]*LessThan, n)
		for i := 0; i < n; i++ {
			// [sum >= threshold] = 1 - [sum < threshold]
			t.lts[i] = NewLessThan(t.sums[i], field.Element(t.threshold), t.numPeers, t.syncSh, "", "", "")
		}
	}

	var active []Operation
	for _, lt := range t.lts {
		if !lt.IsComplete() {
			active = append(active, lt)
		}
	}
	t.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("threshold union %d: %w", t.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(t.lts))
	for i, lt := range t.lts {
		out[i] = ctx.Field.Sub(1, lt.FinalResult()[0])
	}
	t.children = nil
	t.clearOutbound()
	t.result = out
	return nil
}

// WeightedThresholdUnion is ThresholdUnion with each filter's
// contribution scaled by a public per-filter weight before summing.
type WeightedThresholdUnion struct {
	Base

	filters   [][]field.Element
	weights   []uint64
	threshold uint64
	numPeers  int
	syncSh    bool

	sums []field.Element
	lts  []*LessThan
}

// NewWeightedThresholdUnion creates a weighted threshold union.
// weights must have one entry per filter.
func NewWeightedThresholdUnion(filters [][]field.Element, weights []uint64, threshold uint64, numPeers int, synchronizeShares bool) (*WeightedThresholdUnion, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: weighted threshold union: no filters", ErrProtocol)
	}
	if len(weights) != len(filters) {
		return nil, fmt.Errorf("%w: weighted threshold union: %d weights for %d filters", ErrProtocol, len(weights), len(filters))
	}
	n := len(filters[0])
	for _, f := range filters {
		if len(f) != n {
			return nil, fmt.Errorf("%w: weighted threshold union: mismatched filter lengths", ErrProtocol)
		}
	}
	return &WeightedThresholdUnion{
		Base:      NewBase(numPeers),
		filters:   filters,
		weights:   weights,
		threshold: threshold,
		numPeers:  numPeers,
		syncSh:    synchronizeShares,
	}, nil
}

// DoStep implements Operation.
func (w *WeightedThresholdUnion) DoStep(ctx *StepContext) error {
	if w.lts == nil {
		n := len(w.filters[0])
		w.sums = make([]field.Element, n)
		for i := 0; i < n; i++ {
			var sum field.Element
			for fi, f := range w.filters {
				sum = ctx.Field.Add(sum, ctx.Field.Mul(field.Element(w.weights[fi]), f[i]))
			}
			w.sums[i] = sum
		}
		w.lts = make([]*LessThan, n)
		for i := 0; i < n; i++ {
			w.lts[i] = NewLessThan(w.sums[i], field.Element(w.threshold), w.numPeers, w.syncSh, "", "", "")
		}
	}

	var active []Operation
	for _, lt := range w.lts {
		if !lt.IsComplete() {
			active = append(active, lt)
		}
	}
	w.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("weighted threshold union %d: %w", w.id, err)
	}
	if !done {
		return nil
	}

	out := make([]field.Element, len(w.lts))
	for i, lt := range w.lts {
		out[i] = ctx.Field.Sub(1, lt.FinalResult()[0])
	}
	w.children = nil
	w.clearOutbound()
	w.result = out
	return nil
}
