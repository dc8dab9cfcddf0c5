//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"github.com/markkurossi/sepia/field"
)

// Synchronization broadcasts this peer's public 0/1 readiness vector
// and ANDs it elementwise against every other peer's vector. It is
// the share-synchronization companion primitive: unlike Multiplication
// and Reconstruction it never carries secret shares, so a crashed
// peer's missing contribution is simply treated as all-zero rather
// than reported as an error.
type Synchronization struct {
	Base

	mine     []field.Element
	numPeers int
}

// NewSynchronization creates a synchronization round announcing mine,
// a vector of 0/1 field elements.
func NewSynchronization(mine []field.Element, numPeers int) *Synchronization {
	return &Synchronization{
		Base:     NewBase(numPeers),
		mine:     mine,
		numPeers: numPeers,
	}
}

// DoStep implements Operation.
func (s *Synchronization) DoStep(ctx *StepContext) error {
	if s.step == 0 {
		s.broadcast(s.mine)
		s.step++
		return nil
	}

	out := append([]field.Element(nil), s.mine...)
	for peer := 0; peer < s.numPeers; peer++ {
		if peer == ctx.MyIndex {
			continue
		}
		v := s.inbound[peer]
		for i := range out {
			var bit field.Element
			if i < len(v) {
				bit = v[i]
			}
			out[i] = ctx.Field.Mul(out[i], bit)
		}
	}
	s.clearOutbound()
	s.result = out
	return nil
}
