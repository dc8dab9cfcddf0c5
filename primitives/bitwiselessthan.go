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

// CompareSide is one operand of a BitwiseLessThan comparison: either a
// publicly known bit vector (no sharing, no communication needed to
// combine it with the other side) or a vector of this peer's shares.
// Bits are ordered most-significant first.
type CompareSide struct {
	Public bool
	Bits   []field.Element
}

// PublicBits wraps a cleartext bit vector.
func PublicBits(bits []field.Element) CompareSide {
	return CompareSide{Public: true, Bits: bits}
}

// SecretBits wraps this peer's shares of a bit vector.
func SecretBits(bits []field.Element) CompareSide {
	return CompareSide{Public: false, Bits: bits}
}

// BitwiseLessThan implements the Nishide-Ohta bitwise comparison
// [a < b] over two equal-length bit vectors a and b, each either
// public or secret-shared. It XORs bit by bit (via a Multiplication
// sub-operation only where both bits are secret), takes the linear
// prefix-OR to locate the most significant differing bit, multiplies
// that mask elementwise by b's bits (again only where b is secret),
// and sums.
type BitwiseLessThan struct {
	Base

	a, b     CompareSide
	numPeers int
	syncSh   bool

	n int

	phase int // 0=xor, 1=prefix-or, 2=diff-mask multiply, 3=done

	xorMuls   []*Multiplication // nil entry where no network mult is needed
	xorShares []field.Element

	prefixOr *LinearPrefixOr
	diff     []field.Element

	diffMuls []*Multiplication
	sumTerms []field.Element
}

// NewBitwiseLessThan creates a bitwise comparison of a and b, which
// must have the same length.
func NewBitwiseLessThan(a, b CompareSide, numPeers int, synchronizeShares bool) (*BitwiseLessThan, error) {
	if len(a.Bits) != len(b.Bits) {
		return nil, fmt.Errorf("%w: bitwise less-than: mismatched bit lengths %d != %d",
			ErrProtocol, len(a.Bits), len(b.Bits))
	}
	if a.Public && b.Public {
		return nil, fmt.Errorf("%w: bitwise less-than: both sides public, nothing to share", ErrProtocol)
	}
	n := len(a.Bits)
	return &BitwiseLessThan{
		Base:      NewBase(numPeers),
		a:         a,
		b:         b,
		numPeers:  numPeers,
		syncSh:    synchronizeShares,
		n:         n,
		xorMuls:   make([]*Multiplication, n),
		xorShares: make([]field.Element, n),
		diffMuls:  make([]*Multiplication, n),
		sumTerms:  make([]field.Element, n),
	}, nil
}

// DoStep implements Operation.
func (c *BitwiseLessThan) DoStep(ctx *StepContext) error {
	switch c.phase {
	case 0:
		return c.stepXor(ctx)
	case 1:
		return c.stepPrefixOr(ctx)
	case 2:
		return c.stepDiffMultiply(ctx)
	default:
		return fmt.Errorf("%w: bitwise less-than %d: invalid phase %d", ErrPrimitives, c.id, c.phase)
	}
}

// localXor returns the XOR of bit i without any
// Multiplication sub-operation, used when at least one side is
// public: ai + bi - 2*ai*bi, where the public*secret product is a
// local scalar multiplication.
func (c *BitwiseLessThan) localXor(ctx *StepContext, i int) field.Element {
	ai, bi := c.a.Bits[i], c.b.Bits[i]
	var cross field.Element
	switch {
	case c.a.Public:
		cross = ctx.Field.Mul(ai, bi) // bi secret share, ai public scalar
	default:
		cross = ctx.Field.Mul(bi, ai) // ai secret share, bi public scalar
	}
	return ctx.Field.Sub(ctx.Field.Add(ai, bi), ctx.Field.Mul(2, cross))
}

func (c *BitwiseLessThan) stepXor(ctx *StepContext) error {
	both := !c.a.Public && !c.b.Public
	if !both {
		for i := 0; i < c.n; i++ {
			c.xorShares[i] = c.localXor(ctx, i)
		}
		c.phase = 1
		return nil
	}

	var active []Operation
	for i := 0; i < c.n; i++ {
		if c.xorMuls[i] == nil {
			c.xorMuls[i] = NewMultiplication(c.a.Bits[i], c.b.Bits[i], c.numPeers, c.syncSh)
		}
		if !c.xorMuls[i].IsComplete() {
			active = append(active, c.xorMuls[i])
		}
	}
	c.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("bitwise less-than %d: %w", c.id, err)
	}
	if done {
		for i := 0; i < c.n; i++ {
			ai, bi := c.a.Bits[i], c.b.Bits[i]
			cross := c.xorMuls[i].FinalResult()[0]
			c.xorShares[i] = ctx.Field.Sub(ctx.Field.Add(ai, bi), ctx.Field.Mul(2, cross))
		}
		c.children = nil
		c.phase = 1
	}
	return nil
}

func (c *BitwiseLessThan) stepPrefixOr(ctx *StepContext) error {
	if c.prefixOr == nil {
		c.prefixOr = NewLinearPrefixOr(c.xorShares, c.numPeers, c.syncSh)
		c.children = []Operation{c.prefixOr}
	}
	if err := c.prefixOr.DoStep(ctx); err != nil {
		return fmt.Errorf("bitwise less-than %d: %w", c.id, err)
	}
	if !c.prefixOr.IsComplete() {
		return nil
	}

	z := c.prefixOr.FinalResult()
	c.diff = make([]field.Element, c.n)
	c.diff[0] = z[0]
	for i := 1; i < c.n; i++ {
		c.diff[i] = ctx.Field.Sub(z[i], z[i-1])
	}
	c.children = nil
	c.phase = 2
	return nil
}

func (c *BitwiseLessThan) stepDiffMultiply(ctx *StepContext) error {
	if c.b.Public {
		for i := 0; i < c.n; i++ {
			c.sumTerms[i] = ctx.Field.Mul(c.diff[i], c.b.Bits[i])
		}
		return c.finish(ctx)
	}

	var active []Operation
	for i := 0; i < c.n; i++ {
		if c.diffMuls[i] == nil {
			c.diffMuls[i] = NewMultiplication(c.diff[i], c.b.Bits[i], c.numPeers, c.syncSh)
		}
		if !c.diffMuls[i].IsComplete() {
			active = append(active, c.diffMuls[i])
		}
	}
	c.children = active

	done, err := stepAll(ctx, active)
	if err != nil {
		return fmt.Errorf("bitwise less-than %d: %w", c.id, err)
	}
	if done {
		for i := 0; i < c.n; i++ {
			c.sumTerms[i] = c.diffMuls[i].FinalResult()[0]
		}
		return c.finish(ctx)
	}
	return nil
}

func (c *BitwiseLessThan) finish(ctx *StepContext) error {
	var sum field.Element
	for _, t := range c.sumTerms {
		sum = ctx.Field.Add(sum, t)
	}
	c.children = nil
	c.clearOutbound()
	c.result = []field.Element{sum}
	return nil
}
