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

// Reconstruction opens a shared secret to every privacy peer: each
// peer broadcasts its own share, then everyone interpolates the
// received vector. Threshold is the minimum number of present shares
// required (t+1 for an ordinary sharing, 2t+1 for a multiplication's
// intermediate product).
type Reconstruction struct {
	Base

	myShare   field.Element
	threshold int
}

// NewReconstruction creates a reconstruction of myShare, requiring at
// least threshold present shares to interpolate.
func NewReconstruction(myShare field.Element, numPeers, threshold int) *Reconstruction {
	if threshold < 1 || threshold > numPeers {
		panic(fmt.Sprintf("primitives: invalid reconstruction threshold %d for %d peers",
			threshold, numPeers))
	}
	return &Reconstruction{
		Base:      NewBase(numPeers),
		myShare:   myShare,
		threshold: threshold,
	}
}

// DoStep implements Operation.
func (r *Reconstruction) DoStep(ctx *StepContext) error {
	switch r.step {
	case 0:
		r.broadcast([]field.Element{r.myShare})
		r.step++
		return nil

	case 1:
		vec := r.inboundVector()
		vec[ctx.MyIndex] = r.myShare
		val, err := ctx.Scheme.Reconstruct(vec, r.threshold)
		if err != nil {
			return fmt.Errorf("%w: reconstruction %d: %v", ErrPrimitives, r.id, err)
		}
		r.clearOutbound()
		r.result = []field.Element{val}
		return nil

	default:
		return fmt.Errorf("%w: reconstruction %d: invalid step %d", ErrPrimitives, r.id, r.step)
	}
}
