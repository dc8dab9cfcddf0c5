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

// LessThan computes a share of [a < b] for two secret-shared field
// elements, using the Nishide-Ohta reduction to three LSB predicates:
//
//	w = 1-LSB(2a), x = 1-LSB(2b), y = 1-LSB(2(a-b))
//	[a<b] = w*(x+y-2xy) + 1 - x - y + xy
//
// so w, x and y are [a < p/2], [b < p/2] and [a-b < p/2].
//
// Each predicate is only computed once per cache key: KeyA, KeyB and
// KeyDiff identify the LSB result in the StepContext's PredicateCache
// so that comparisons repeatedly touching the same operand (a running
// minimum, a fixed pivot) reuse the randomized LSB extraction instead
// of repeating it.
type LessThan struct {
	Base

	a, b     field.Element
	numPeers int
	syncSh   bool

	keyA, keyB, keyDiff string

	phase int // 0=w, 1=x, 2=y, 3=xy, 4=w*t, 5=done

	lsb *LSB // the LSB sub-operation currently in flight, if any

	w, x, y field.Element

	xyMul *Multiplication
	xy    field.Element

	t      field.Element
	wtMul  *Multiplication

	// preGenerated holds bitwise-random numbers fetched ahead of time
	// by the driver's batched pre-generation pass (spec's nested
	// scheduler snapshot), indexed the same way as the phases: 0=w,
	// 1=x, 2=y. A nil entry means "generate fresh", same as LSB's own
	// default.
	preGenerated [3][]field.Element
}

// SetPreGeneratedBits supplies a bitwise-random number already
// produced by a batched pre-generation pass for one of the three LSB
// predicates (0=w, 1=x, 2=y), letting this comparison skip its own
// GenerateBitwiseRandomNumber sub-operation.
func (l *LessThan) SetPreGeneratedBits(predicate int, bits []field.Element) {
	l.preGenerated[predicate] = bits
}

// NewLessThan creates a LessThan comparison of a and b. The step
// context's Cache may be nil, in which case no predicate is reused
// across LessThan instances.
// keyA, keyB and keyDiff are the cache keys for the three predicates;
// an empty key disables caching for that predicate only.
func NewLessThan(a, b field.Element, numPeers int, synchronizeShares bool, keyA, keyB, keyDiff string) *LessThan {
	return &LessThan{
		Base:     NewBase(numPeers),
		a:        a,
		b:        b,
		numPeers: numPeers,
		syncSh:   synchronizeShares,
		keyA:     keyA,
		keyB:     keyB,
		keyDiff:  keyDiff,
	}
}

// DoStep implements Operation.
func (l *LessThan) DoStep(ctx *StepContext) error {
	switch l.phase {
	case 0:
		return l.stepPredicate(ctx, l.keyA, ctx.Field.Mul(2, l.a), l.preGenerated[0], &l.w, 1)
	case 1:
		return l.stepPredicate(ctx, l.keyB, ctx.Field.Mul(2, l.b), l.preGenerated[1], &l.x, 2)
	case 2:
		diff := ctx.Field.Sub(l.a, l.b)
		return l.stepPredicate(ctx, l.keyDiff, ctx.Field.Mul(2, diff), l.preGenerated[2], &l.y, 3)
	case 3:
		return l.stepCrossXY(ctx)
	case 4:
		return l.stepCrossWT(ctx)
	default:
		return fmt.Errorf("%w: less-than %d: invalid phase %d", ErrPrimitives, l.id, l.phase)
	}
}

// stepPredicate resolves one of the three LSB predicates, consulting
// the cache first, and advances to nextPhase once it is available.
func (l *LessThan) stepPredicate(ctx *StepContext, key string, doubled field.Element, preGenerated []field.Element, out *field.Element, nextPhase int) error {
	if l.lsb == nil {
		if ctx.Cache != nil {
			if v, ok := ctx.Cache.Get(key); ok {
				*out = v
				l.phase = nextPhase
				return nil
			}
		}
		l.lsb = NewLSB(doubled, l.numPeers, l.syncSh, preGenerated)
		l.children = []Operation{l.lsb}
		return l.lsb.DoStep(ctx)
	}
	if !l.lsb.IsComplete() {
		return l.lsb.DoStep(ctx)
	}
	v := l.lsb.FinalResult()[0]
	if IsFailure([]field.Element{v}) {
		l.children = nil
		l.result = []field.Element{FailureResult}
		return nil
	}
	// LessThan.java step2: predicateShare = 1 - LSB(2*value), not the
	// LSB bit itself.
	predicate := ctx.Field.Sub(1, v)
	*out = predicate
	if ctx.Cache != nil {
		ctx.Cache.Set(key, predicate)
	}
	l.lsb = nil
	l.children = nil
	l.phase = nextPhase
	return nil
}

func (l *LessThan) stepCrossXY(ctx *StepContext) error {
	if l.xyMul == nil {
		l.xyMul = NewMultiplication(l.x, l.y, l.numPeers, l.syncSh)
		l.children = []Operation{l.xyMul}
		return l.xyMul.DoStep(ctx)
	}
	if !l.xyMul.IsComplete() {
		return l.xyMul.DoStep(ctx)
	}
	l.xy = l.xyMul.FinalResult()[0]
	l.t = ctx.Field.Sub(ctx.Field.Add(l.x, l.y), ctx.Field.Mul(2, l.xy))
	l.children = nil
	l.phase = 4
	return nil
}

func (l *LessThan) stepCrossWT(ctx *StepContext) error {
	if l.wtMul == nil {
		l.wtMul = NewMultiplication(l.w, l.t, l.numPeers, l.syncSh)
		l.children = []Operation{l.wtMul}
		return l.wtMul.DoStep(ctx)
	}
	if !l.wtMul.IsComplete() {
		return l.wtMul.DoStep(ctx)
	}
	wt := l.wtMul.FinalResult()[0]

	// wt + 1 - x - y + xy
	result := ctx.Field.Add(wt, 1)
	result = ctx.Field.Sub(result, l.x)
	result = ctx.Field.Sub(result, l.y)
	result = ctx.Field.Add(result, l.xy)

	l.children = nil
	l.clearOutbound()
	l.result = []field.Element{result}
	return nil
}
