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

// Min reduces a secret-shared array to its minimum with a pairwise
// tournament: each round compares adjacent surviving values with
// LessThan and keeps the smaller of each pair via a single select
// multiplication, halving the array every round. Every level's
// LessThan calls draw their own fresh bitwise-random numbers, so
// callers sizing a random-number budget should count three
// GenerateBitwiseRandomNumbers (one per LSB predicate) per comparison
// per tournament level (len(values)-1 total comparisons across all
// levels).
type Min struct {
	Base

	numPeers int
	syncSh   bool

	level []field.Element

	lts     []*LessThan
	selMuls []*Multiplication
	diffs   []field.Element
	phase   int // 0 = comparing, 1 = selecting
}

// NewMin creates a Min reduction of values. values must be non-empty.
func NewMin(values []field.Element, numPeers int, synchronizeShares bool) *Min {
	return &Min{
		Base:     NewBase(numPeers),
		numPeers: numPeers,
		syncSh:   synchronizeShares,
		level:    append([]field.Element(nil), values...),
	}
}

// DoStep implements Operation.
func (m *Min) DoStep(ctx *StepContext) error {
	if len(m.level) == 0 {
		return fmt.Errorf("%w: min %d: empty input", ErrProtocol, m.id)
	}
	if len(m.level) == 1 {
		m.clearOutbound()
		m.result = []field.Element{m.level[0]}
		return nil
	}

	pairs := len(m.level) / 2
	switch m.phase {
	case 0:
		if m.lts == nil {
			m.lts = make([]*LessThan, pairs)
			for i := 0; i < pairs; i++ {
				m.lts[i] = NewLessThan(m.level[2*i], m.level[2*i+1], m.numPeers, m.syncSh, "", "", "")
			}
		}
		var active []Operation
		for _, lt := range m.lts {
			if !lt.IsComplete() {
				active = append(active, lt)
			}
		}
		m.children = active

		done, err := stepAll(ctx, active)
		if err != nil {
			return fmt.Errorf("min %d: %w", m.id, err)
		}
		if !done {
			return nil
		}
		m.diffs = make([]field.Element, pairs)
		for i := 0; i < pairs; i++ {
			m.diffs[i] = ctx.Field.Sub(m.level[2*i], m.level[2*i+1])
		}
		m.children = nil
		m.phase = 1
		return nil
	case 1:
		if m.selMuls == nil {
			m.selMuls = make([]*Multiplication, pairs)
			for i := 0; i < pairs; i++ {
				m.selMuls[i] = NewMultiplication(m.lts[i].FinalResult()[0], m.diffs[i], m.numPeers, m.syncSh)
			}
		}
		var active []Operation
		for _, s := range m.selMuls {
			if !s.IsComplete() {
				active = append(active, s)
			}
		}
		m.children = active

		done, err := stepAll(ctx, active)
		if err != nil {
			return fmt.Errorf("min %d: %w", m.id, err)
		}
		if !done {
			return nil
		}

		next := make([]field.Element, 0, pairs+1)
		for i := 0; i < pairs; i++ {
			// min(a,b) = b + lt*(a-b)
			next = append(next, ctx.Field.Add(m.level[2*i+1], m.selMuls[i].FinalResult()[0]))
		}
		if len(m.level)%2 == 1 {
			next = append(next, m.level[len(m.level)-1])
		}

		m.level = next
		m.lts = nil
		m.selMuls = nil
		m.diffs = nil
		m.children = nil
		m.phase = 0

		if len(m.level) == 1 {
			m.clearOutbound()
			m.result = []field.Element{m.level[0]}
		}
		return nil
	default:
		return fmt.Errorf("%w: min %d: invalid phase %d", ErrPrimitives, m.id, m.phase)
	}
}
