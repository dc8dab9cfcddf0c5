//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/shamir"
)

// Multiplication implements the Gennaro/Rabin/Rabin multiplication
// protocol: locally multiply the two input shares, reshare the
// product at degree t, exchange, optionally agree on a common support
// set via mask intersection, and interpolate at degree 2t.
type Multiplication struct {
	Base

	a, b field.Element

	synchronizeShares bool

	myReshare field.Element   // this peer's own share of the reshared product
	localMask []bool          // which peers' reshared product arrived
	shares    []field.Element // reshared product shares, as received
}

// NewMultiplication creates a multiplication of shares a and b.
// synchronizeShares enables the bitmask-intersection safeguard so that
// every surviving peer interpolates the identical support set even
// when peers disagree about who has crashed.
func NewMultiplication(a, b field.Element, numPeers int, synchronizeShares bool) *Multiplication {
	return &Multiplication{
		Base:              NewBase(numPeers),
		a:                 a,
		b:                 b,
		synchronizeShares: synchronizeShares,
	}
}

// DoStep implements Operation.
func (m *Multiplication) DoStep(ctx *StepContext) error {
	switch m.step {
	case 0:
		product := ctx.Field.Mul(m.a, m.b)
		shares, err := ctx.Scheme.Share(product, ctx.Rand, ctx.Degree)
		if err != nil {
			return fmt.Errorf("%w: multiplication %d: %v", ErrPrimitives, m.id, err)
		}
		for p := 0; p < m.numPeers; p++ {
			m.outbound[p] = []field.Element{shares[p]}
		}
		m.myReshare = shares[ctx.MyIndex]
		m.step++
		return nil

	case 1:
		m.shares = make([]field.Element, m.numPeers)
		m.localMask = make([]bool, m.numPeers)
		for p := 0; p < m.numPeers; p++ {
			if p == ctx.MyIndex {
				m.shares[p] = m.myReshare
				m.localMask[p] = true
				continue
			}
			v := m.inboundOrMissing(p)
			m.shares[p] = v
			m.localMask[p] = v != shamir.MissingShare
		}

		if !m.synchronizeShares {
			return m.interpolate(ctx)
		}

		maskElem := encodeMask(m.localMask)
		m.broadcast([]field.Element{maskElem})
		m.step++
		return nil

	case 2:
		// Intersect every received mask (including our own) so that
		// all surviving peers agree on one support set before
		// interpolating.
		combined := append([]bool(nil), m.localMask...)
		for p := 0; p < m.numPeers; p++ {
			if p == ctx.MyIndex {
				// Our own mask never travels through the driver's
				// inbound slots; it is already folded into
				// m.localMask from case 1.
				continue
			}
			v := m.inboundOrMissing(p)
			if v == shamir.MissingShare {
				// peer p's mask vote itself didn't arrive: drop it
				// from the AND rather than voting it down, so p's
				// reshare can still survive if every mask that did
				// arrive reports it present.
				continue
			}
			peerMask := decodeMask(v, m.numPeers)
			for i := range combined {
				if !peerMask[i] {
					combined[i] = false
				}
			}
		}
		for i, ok := range combined {
			if !ok {
				m.shares[i] = shamir.MissingShare
			}
		}
		m.clearOutbound()
		return m.interpolate(ctx)

	default:
		return fmt.Errorf("%w: multiplication %d: invalid step %d", ErrPrimitives, m.id, m.step)
	}
}

func (m *Multiplication) interpolate(ctx *StepContext) error {
	val, err := ctx.Scheme.Reconstruct(m.shares, ctx.MultThreshold())
	if err != nil {
		return fmt.Errorf("%w: multiplication %d: %v", ErrPrimitives, m.id, err)
	}
	m.clearOutbound()
	m.result = []field.Element{val}
	return nil
}

// encodeMask packs a present/absent vector into a single field
// element, one bit per peer. This relies on numPeers being well below
// the field's bit length (spec.md §9 open question); callers with a
// very large number of peers or a very small prime must carry the
// mask in a dedicated message field instead.
func encodeMask(present []bool) field.Element {
	var v uint64
	for i, ok := range present {
		if ok {
			v |= 1 << uint(i)
		}
	}
	return field.Element(v)
}

func decodeMask(v field.Element, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = (uint64(v)>>uint(i))&1 == 1
	}
	return out
}
