//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"
	"sync"

	"github.com/markkurossi/sepia/barrier"
	"github.com/markkurossi/sepia/field"
)

// OperationSet schedules a fixed collection of Operations with a
// bounded degree of parallelism. Operations with id < parallelCount
// start in the running slot matching their id; the rest wait in a
// queue. When a running operation completes, the slot it occupied is
// refilled from the queue (same slot, id += parallelCount) and that
// operation takes its first step immediately, exactly as it would have
// if scheduled from the start.
type OperationSet struct {
	mu sync.Mutex

	ops          []Operation
	total        int
	parallel     int
	slotCurrent  []int // per slot, the id currently occupying it, or -1
	completed    int
}

// NewOperationSet creates a set of ops, assigning each an id equal to
// its position, and admits the first parallelCount of them (0 means
// "all of them") into the running slots.
func NewOperationSet(ops []Operation, parallelCount int) *OperationSet {
	total := len(ops)
	if parallelCount <= 0 || parallelCount > total {
		parallelCount = total
	}
	for i, op := range ops {
		op.SetID(i)
	}
	slots := make([]int, parallelCount)
	for i := range slots {
		if i < total {
			slots[i] = i
		} else {
			slots[i] = -1
		}
	}
	return &OperationSet{
		ops:         ops,
		total:       total,
		parallel:    parallelCount,
		slotCurrent: slots,
	}
}

// Total returns the number of operations in the set.
func (s *OperationSet) Total() int {
	return s.total
}

// IsComplete reports whether every operation in the set has finished.
func (s *OperationSet) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed >= s.total
}

// Result returns the final result of operation id. id must refer to a
// completed operation.
func (s *OperationSet) Result(id int) ([]field.Element, error) {
	if id < 0 || id >= s.total {
		return nil, fmt.Errorf("%w: operation set: id %d out of range", ErrProtocol, id)
	}
	op := s.ops[id]
	if !op.IsComplete() {
		return nil, fmt.Errorf("%w: operation set: operation %d not complete", ErrPrimitives, id)
	}
	return op.FinalResult(), nil
}

// Operation returns the operation with the given id, for outbound
// share collection and inbound share distribution by the driver.
func (s *OperationSet) Operation(id int) Operation {
	return s.ops[id]
}

// runningIDs returns the ids currently occupying a slot, skipping
// empty (-1) slots.
func (s *OperationSet) runningIDs() []int {
	var ids []int
	for _, id := range s.slotCurrent {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// ProcessReceivedData advances the set by exactly one round: it
// rendezvous-synchronises numWorkers workers on a cyclic barrier,
// partitions the currently running operations among them by
// arrival-order rank, has each worker step its slice, dequeues
// replacements for any slot whose operation just completed, and
// barrier-synchronises again before returning.
func (s *OperationSet) ProcessReceivedData(ctx *StepContext, numWorkers int) error {
	s.mu.Lock()
	ids := s.runningIDs()
	s.mu.Unlock()

	if len(ids) == 0 || numWorkers <= 0 {
		return nil
	}
	if numWorkers > len(ids) {
		numWorkers = len(ids)
	}

	slices := partitionByRank(ids, numWorkers)
	cyc := barrier.NewCyclic(numWorkers)

	errs := make([]error, numWorkers)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		w := w
		go func() {
			defer wg.Done()
			cyc.Wait()
			for _, id := range slices[w] {
				if err := s.stepOne(ctx, id); err != nil {
					errs[w] = err
					break
				}
			}
			cyc.Wait()
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stepOne advances the operation in slot id's position by one round,
// dequeuing a replacement from the same slot if it completes.
func (s *OperationSet) stepOne(ctx *StepContext, id int) error {
	op := s.ops[id]
	if op.IsComplete() {
		return nil
	}
	if err := op.DoStep(ctx); err != nil {
		return fmt.Errorf("operation %d: %w", id, err)
	}
	if !op.IsComplete() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	for slot, cur := range s.slotCurrent {
		if cur != id {
			continue
		}
		next := id + s.parallel
		if next < s.total {
			s.slotCurrent[slot] = next
			// The newly admitted operation takes its first step
			// immediately, matching operations scheduled from the
			// start.
			nextOp := s.ops[next]
			if err := nextOp.DoStep(ctx); err != nil {
				return fmt.Errorf("operation %d: %w", next, err)
			}
			if nextOp.IsComplete() {
				s.completed++
				s.slotCurrent[slot] = -1
			}
		} else {
			s.slotCurrent[slot] = -1
		}
		break
	}
	return nil
}

// partitionByRank splits ids into numWorkers contiguous slices,
// distributing any remainder across the first slices.
func partitionByRank(ids []int, numWorkers int) [][]int {
	out := make([][]int, numWorkers)
	n := len(ids)
	base := n / numWorkers
	extra := n % numWorkers
	pos := 0
	for w := 0; w < numWorkers; w++ {
		count := base
		if w < extra {
			count++
		}
		out[w] = ids[pos : pos+count]
		pos += count
	}
	return out
}

// OutboundFor concatenates the outbound share payload for peer across
// every currently running operation, in id order, each contributing
// its own pre-order traversal.
func (s *OperationSet) OutboundFor(peer int) []field.Element {
	s.mu.Lock()
	ids := s.runningIDs()
	s.mu.Unlock()

	var out []field.Element
	for _, id := range ids {
		out = append(out, collectOutbound(s.ops[id], peer)...)
	}
	return out
}

// SizesFor records, in the same order OutboundFor lays out data, how
// many elements each running operation (and its active children) is
// about to send to peer. Both peers compute this independently from
// their own, identically-shaped operation trees before exchanging
// messages, so a peer's own sizes are what it expects to receive
// back (see recordSizes).
func (s *OperationSet) SizesFor(peer int) []int {
	s.mu.Lock()
	ids := s.runningIDs()
	s.mu.Unlock()

	var sizes []int
	for _, id := range ids {
		recordSizes(s.ops[id], peer, &sizes)
	}
	return sizes
}

// Distribute hands data (received from peer, or a same-shaped dummy
// for a crashed peer) back to the running operations it belongs to,
// using sizes as produced by this set's own SizesFor for this round.
func (s *OperationSet) Distribute(peer int, sizes []int, data []field.Element) {
	s.mu.Lock()
	ids := s.runningIDs()
	s.mu.Unlock()

	idx := 0
	for _, id := range ids {
		data = distributeInbound(s.ops[id], peer, sizes, &idx, data)
	}
}

// SetMissing marks peer's contribution as absent for every currently
// running operation (and its active children) this round, the
// scheduler-side half of treating a crashed peer's "null" message as
// all-missing rather than an error.
func (s *OperationSet) SetMissing(peer int) {
	s.mu.Lock()
	ids := s.runningIDs()
	s.mu.Unlock()

	for _, id := range ids {
		markMissing(s.ops[id], peer)
	}
}

func markMissing(op Operation, peer int) {
	if op.IsComplete() {
		return
	}
	op.SetInbound(peer, nil)
	for _, child := range op.SubOperations() {
		markMissing(child, peer)
	}
}

// Scheduler owns the single currently-open OperationSet and the
// snapshot stack used to run a nested batch of operations (typically
// BatchGenerateBitwiseRandomNumbers) without disturbing an outer,
// in-progress set.
type Scheduler struct {
	mu    sync.Mutex
	cur   *OperationSet
	stack []*OperationSet
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule opens a new operation set as the current one. It is an
// error to schedule while a set is already open; Push first.
func (s *Scheduler) Schedule(ops []Operation, parallelCount int) (*OperationSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return nil, fmt.Errorf("%w: scheduler: a set is already open", ErrPrimitives)
	}
	s.cur = NewOperationSet(ops, parallelCount)
	return s.cur, nil
}

// Current returns the currently open set, or nil.
func (s *Scheduler) Current() *OperationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Push saves the current set on the snapshot stack and clears it,
// making room for a nested Schedule call.
func (s *Scheduler) Push() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return fmt.Errorf("%w: scheduler: push with no open set", ErrPrimitives)
	}
	s.stack = append(s.stack, s.cur)
	s.cur = nil
	return nil
}

// Pop restores the most recently pushed set, discarding whatever was
// scheduled in the meantime.
func (s *Scheduler) Pop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return fmt.Errorf("%w: scheduler: pop with empty stack", ErrPrimitives)
	}
	s.cur = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}
