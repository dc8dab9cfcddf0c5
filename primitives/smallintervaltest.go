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

// SmallIntervalTest computes a share of [l <= x <= u] for a small,
// publicly known interval [l, u] by building the product of (x - v)
// for every v in the interval and testing the product for equality
// with zero: x falls in the interval exactly when one of the factors
// vanishes.
type SmallIntervalTest struct {
	Base

	x        field.Element
	l, u     uint64
	numPeers int
	syncSh   bool

	product *Product
	eq      *Equal
	phase   int
}

// NewSmallIntervalTest creates an interval test of x against [l, u].
// l must be <= u.
func NewSmallIntervalTest(x field.Element, l, u uint64, numPeers int, synchronizeShares bool) (*SmallIntervalTest, error) {
	if l > u {
		return nil, fmt.Errorf("%w: small interval test: empty interval [%d, %d]", ErrProtocol, l, u)
	}
	return &SmallIntervalTest{
		Base:     NewBase(numPeers),
		x:        x,
		l:        l,
		u:        u,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
	}, nil
}

// DoStep implements Operation.
func (s *SmallIntervalTest) DoStep(ctx *StepContext) error {
	switch s.phase {
	case 0:
		if s.product == nil {
			factors := make([]field.Element, 0, s.u-s.l+1)
			for v := s.l; v <= s.u; v++ {
				factors = append(factors, ctx.Field.Sub(s.x, field.Element(v)))
			}
			s.product = NewProduct(factors, s.numPeers, s.syncSh)
			s.children = []Operation{s.product}
			return s.product.DoStep(ctx)
		}
		if err := s.product.DoStep(ctx); err != nil {
			return fmt.Errorf("small interval test %d: %w", s.id, err)
		}
		if !s.product.IsComplete() {
			return nil
		}
		s.children = nil
		s.phase = 1
		return nil
	case 1:
		if s.eq == nil {
			s.eq = NewEqual(s.product.FinalResult()[0], 0, s.numPeers, s.syncSh)
			s.children = []Operation{s.eq}
			return s.eq.DoStep(ctx)
		}
		if err := s.eq.DoStep(ctx); err != nil {
			return fmt.Errorf("small interval test %d: %w", s.id, err)
		}
		if !s.eq.IsComplete() {
			return nil
		}
		s.children = nil
		s.clearOutbound()
		s.result = append([]field.Element(nil), s.eq.FinalResult()...)
		return nil
	default:
		return fmt.Errorf("%w: small interval test %d: invalid phase %d", ErrPrimitives, s.id, s.phase)
	}
}
