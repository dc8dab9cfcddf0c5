//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"encoding/binary"
	"fmt"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/shamir"
)

// GenerateRandomNumber has every peer locally sample a uniform field
// element, share it to all, and sum the incoming shares: the result
// is a share of the sum of the samples, uniform in [0, p).
type GenerateRandomNumber struct {
	Base

	myShare field.Element // this peer's own share of its sampled value
}

// NewGenerateRandomNumber creates a fresh random-number generation.
func NewGenerateRandomNumber(numPeers int) *GenerateRandomNumber {
	return &GenerateRandomNumber{Base: NewBase(numPeers)}
}

// DoStep implements Operation.
func (g *GenerateRandomNumber) DoStep(ctx *StepContext) error {
	switch g.step {
	case 0:
		var buf [8]byte
		if _, err := readFull(ctx, buf[:]); err != nil {
			return fmt.Errorf("%w: random number %d: %v", ErrPrimitives, g.id, err)
		}
		r := ctx.Field.Elem(binary.BigEndian.Uint64(buf[:]))

		shares, err := ctx.Scheme.Share(r, ctx.Rand, -1)
		if err != nil {
			return fmt.Errorf("%w: random number %d: %v", ErrPrimitives, g.id, err)
		}
		for p := 0; p < g.numPeers; p++ {
			g.outbound[p] = []field.Element{shares[p]}
		}
		g.myShare = shares[ctx.MyIndex]
		g.step++
		return nil

	case 1:
		sum := g.myShare
		for p := 0; p < g.numPeers; p++ {
			if p == ctx.MyIndex {
				continue
			}
			v := g.inboundOrMissing(p)
			if v == shamir.MissingShare {
				continue
			}
			sum = ctx.Field.Add(sum, v)
		}
		g.clearOutbound()
		g.result = []field.Element{sum}
		return nil

	default:
		return fmt.Errorf("%w: random number %d: invalid step %d", ErrPrimitives, g.id, g.step)
	}
}

func readFull(ctx *StepContext, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := ctx.Rand.Read(buf[n:])
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}
