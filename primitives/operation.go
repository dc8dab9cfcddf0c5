//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package primitives implements the scheduler of sharable arithmetic
// operations, the state machines for each composite operation, the
// share-synchronisation protocol driver, and the round-synchronous
// worker barriers that drive them over a privacy-peer mesh.
package primitives

import (
	"io"

	"github.com/markkurossi/sepia/field"
	"github.com/markkurossi/sepia/shamir"
)

// Operation is the contract every sharable operation implements,
// whether it is a leaf (Reconstruction, GenerateRandomNumber) or a
// composite that recursively drives sub-operations (Multiplication's
// reshare, GenerateRandomBit, Power, ...). Completed sub-operations are
// excluded from share copying by SubOperations returning only the
// currently active ones.
type Operation interface {
	// ID returns this operation's id within its operation set.
	ID() int
	// SetID assigns this operation's id. Called once by the
	// scheduler when the operation is admitted into the running set.
	SetID(id int)

	// Outbound returns this operation's own outbound share payload
	// for peer, for the round about to be sent. Empty/nil if this
	// operation has nothing of its own to send this round (composite
	// operations typically return nil here, deferring to children).
	Outbound(peer int) []field.Element
	// SetInbound delivers the payload received from peer for the
	// round just completed.
	SetInbound(peer int, vals []field.Element)

	// SubOperations returns the currently active children, in the
	// order their shares should be laid out in the pre-order
	// traversal. Completed children must not be returned.
	SubOperations() []Operation

	// DoStep advances this operation by exactly one round.
	DoStep(ctx *StepContext) error
	// IsComplete reports whether FinalResult is valid.
	IsComplete() bool
	// FinalResult returns the operation's result. Valid only once
	// IsComplete returns true.
	FinalResult() []field.Element
}

// StepContext carries the shared, read-mostly state every operation
// needs to take a step: the sharing scheme, field arithmetic, a
// randomness source, this peer's identity, and the predicate cache
// used by LessThan. It holds no lifetime beyond a single round.
type StepContext struct {
	Scheme   *shamir.Scheme
	Field    *field.Field
	Rand     io.Reader
	MyIndex  int // 0-based index of this privacy peer
	NumPeers int
	Cache    *PredicateCache

	// Degree is a convenience copy of Scheme.Degree.
	Degree int
}

// Threshold returns t+1, the minimum share count for ordinary
// reconstruction.
func (c *StepContext) Threshold() int {
	return c.Degree + 1
}

// MultThreshold returns 2t+1, the minimum share count for
// reconstructing a multiplication's intermediate product.
func (c *StepContext) MultThreshold() int {
	return 2*c.Degree + 1
}

// Base implements the bookkeeping shared by every operation: id,
// round counter, outbound/inbound share buffers (one slot per peer),
// the active child list, and the completion-marking final result.
// Concrete operations embed Base and only implement DoStep.
type Base struct {
	id       int
	step     int
	numPeers int
	outbound [][]field.Element
	inbound  [][]field.Element
	children []Operation
	result   []field.Element
}

// NewBase initialises a Base for an operation running over numPeers
// privacy peers.
func NewBase(numPeers int) Base {
	return Base{
		numPeers: numPeers,
		outbound: make([][]field.Element, numPeers),
		inbound:  make([][]field.Element, numPeers),
	}
}

// ID implements Operation.
func (b *Base) ID() int { return b.id }

// SetID implements Operation.
func (b *Base) SetID(id int) { b.id = id }

// Outbound implements Operation.
func (b *Base) Outbound(peer int) []field.Element { return b.outbound[peer] }

// SetInbound implements Operation.
func (b *Base) SetInbound(peer int, vals []field.Element) { b.inbound[peer] = vals }

// SubOperations implements Operation.
func (b *Base) SubOperations() []Operation { return b.children }

// IsComplete implements Operation.
func (b *Base) IsComplete() bool { return b.result != nil }

// FinalResult implements Operation.
func (b *Base) FinalResult() []field.Element { return b.result }

// broadcast sets the same outbound payload for every peer.
func (b *Base) broadcast(vals []field.Element) {
	for p := 0; p < b.numPeers; p++ {
		b.outbound[p] = vals
	}
}

// clearOutbound drops any pending outbound payload, used once an
// operation has nothing further to send.
func (b *Base) clearOutbound() {
	for p := range b.outbound {
		b.outbound[p] = nil
	}
}

// inboundOrMissing returns the share received from peer for this
// round, or shamir.MissingShare if peer sent nothing (crashed, or a
// dummy message was substituted by the driver).
func (b *Base) inboundOrMissing(peer int) field.Element {
	v := b.inbound[peer]
	if len(v) == 0 {
		return shamir.MissingShare
	}
	return v[0]
}

// inboundVector builds the length-numPeers share vector for the
// current round, substituting shamir.MissingShare for absent peers.
func (b *Base) inboundVector() []field.Element {
	out := make([]field.Element, b.numPeers)
	for p := range out {
		out[p] = b.inboundOrMissing(p)
	}
	return out
}

// stepAll advances every not-yet-complete operation in ops by exactly
// one round, returning whether all of them are now complete. Used by
// every composite operation that runs a batch of children
// concurrently (Power's square/multiply pair, Product's tree levels,
// the array operations, BatchGenerateBitwiseRandomNumbers' attempts).
func stepAll(ctx *StepContext, ops []Operation) (bool, error) {
	allDone := true
	for _, op := range ops {
		if op.IsComplete() {
			continue
		}
		if err := op.DoStep(ctx); err != nil {
			return false, err
		}
		if !op.IsComplete() {
			allDone = false
		}
	}
	return allDone, nil
}

// activeOnly filters out already-completed operations, used when
// handing a child list to SubOperations so completed ones drop out of
// share copying.
func activeOnly(ops []Operation) []Operation {
	var out []Operation
	for _, op := range ops {
		if !op.IsComplete() {
			out = append(out, op)
		}
	}
	return out
}

// Walk calls fn for op and, recursively, for every active
// sub-operation, in pre-order — the same order used to lay out shares
// in a primitives message.
func Walk(op Operation, fn func(Operation)) {
	fn(op)
	for _, child := range op.SubOperations() {
		Walk(child, fn)
	}
}

// collectOutbound gathers op's own outbound payload followed by its
// active children's, in pre-order, skipping anything complete.
func collectOutbound(op Operation, peer int) []field.Element {
	if op.IsComplete() {
		return nil
	}
	out := append([]field.Element(nil), op.Outbound(peer)...)
	for _, child := range op.SubOperations() {
		out = append(out, collectOutbound(child, peer)...)
	}
	return out
}

// recordSizes appends, in pre-order, how many elements op and its
// active children are about to send to peer. Both ends of a
// primitives-message exchange run the identical schedule of
// operations in lockstep — every branch an operation takes depends
// only on publicly reconstructed values, never on a peer's private
// share — so a peer's own outbound sizes for this round are exactly
// the sizes it must expect back from its counterpart.
func recordSizes(op Operation, peer int, sizes *[]int) {
	if op.IsComplete() {
		return
	}
	*sizes = append(*sizes, len(op.Outbound(peer)))
	for _, child := range op.SubOperations() {
		recordSizes(child, peer, sizes)
	}
}

// distributeInbound consumes data in pre-order according to sizes
// (as produced by recordSizes on this same, not-yet-advanced
// operation tree), handing each active operation the slice it is
// due to receive for the round just finished.
func distributeInbound(op Operation, peer int, sizes []int, idx *int, data []field.Element) []field.Element {
	if op.IsComplete() {
		return data
	}
	n := sizes[*idx]
	*idx++
	if n > len(data) {
		n = len(data)
	}
	op.SetInbound(peer, data[:n])
	data = data[n:]
	for _, child := range op.SubOperations() {
		data = distributeInbound(child, peer, sizes, idx, data)
	}
	return data
}
