//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"fmt"
	"log"
	"sync"

	"github.com/markkurossi/sepia/barrier"
	"github.com/markkurossi/sepia/field"
)

// RoundResult is what the driver surfaces to the application once an
// operation set finishes: either every operation's final result, in
// id order, or the error that aborted the set.
type RoundResult struct {
	OK           bool
	Err          error
	PerOperation [][]field.Element
}

// Driver sits between the application and the Scheduler: it runs a
// set to completion, exchanging one pooled Message per peer pair each
// round, and handles a crashed peer's missing message by marking that
// peer's contribution absent rather than failing the round.
//
// Send ordering between any two peers is decided by comparing their
// indices: the lesser index sends first, the greater receives first,
// breaking the symmetry that would otherwise deadlock two peers that
// both try to send before either reads.
type Driver struct {
	scheduler *Scheduler
	messenger Messenger
	ctx       *StepContext
	logger    *log.Logger
	rounds    int
	stats     *Stats
}

// NewDriver creates a driver for this privacy peer. ctx.MyIndex
// identifies this peer among ctx.NumPeers; logger may be nil, which
// installs a logger that discards output.
func NewDriver(messenger Messenger, ctx *StepContext, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	return &Driver{
		scheduler: NewScheduler(),
		messenger: messenger,
		ctx:       ctx,
		logger:    logger,
		stats:     NewStats(),
	}
}

// Stats returns the driver's accumulated round statistics.
func (d *Driver) Stats() *Stats {
	return d.stats
}

// Run schedules ops as a new operation set and drives it to
// completion, exchanging primitives messages with every other privacy
// peer each round that leaves operations unfinished.
func (d *Driver) Run(ops []Operation, parallelCount int) (*RoundResult, error) {
	if err := d.pregenerateBits(ops); err != nil {
		return &RoundResult{OK: false, Err: err}, err
	}

	set, err := d.scheduler.Schedule(ops, parallelCount)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort: Schedule only succeeds when no set was open, so
		// a bare Run always leaves the scheduler empty again.
		d.scheduler.mu.Lock()
		d.scheduler.cur = nil
		d.scheduler.mu.Unlock()
	}()

	numWorkers := d.ctx.NumPeers - 1
	if numWorkers < 1 {
		numWorkers = 1
	}

	for round := 0; ; round++ {
		if err := set.ProcessReceivedData(d.ctx, numWorkers); err != nil {
			return &RoundResult{OK: false, Err: err}, err
		}
		if set.IsComplete() {
			break
		}
		if err := d.exchangeRound(set, round); err != nil {
			return &RoundResult{OK: false, Err: err}, err
		}
	}

	out := make([][]field.Element, set.Total())
	for i := range out {
		r, err := set.Result(i)
		if err != nil {
			return &RoundResult{OK: false, Err: err}, err
		}
		out[i] = r
	}
	return &RoundResult{OK: true, PerOperation: out}, nil
}

// RunNestedBatch runs a fresh, independent operation set (typically a
// single BatchGenerateBitwiseRandomNumbers) without disturbing the
// current set: it pushes the live set onto the scheduler's snapshot
// stack, schedules and runs the nested set, then pops the outer set
// back, bit-identical to how it stood before the push.
func (d *Driver) RunNestedBatch(ops []Operation, parallelCount int) (*RoundResult, error) {
	hadOuter := d.scheduler.Current() != nil
	if hadOuter {
		if err := d.scheduler.Push(); err != nil {
			return nil, err
		}
	}
	result, err := d.Run(ops, parallelCount)
	if hadOuter {
		if popErr := d.scheduler.Pop(); popErr != nil && err == nil {
			err = popErr
		}
	}
	return result, err
}

// lessThanRequest names one of a LessThan operation's three predicates
// still missing a cached share, in the deterministic order
// pregenerateBits walks the operation tree.
type lessThanRequest struct {
	lt        *LessThan
	predicate int // 0=w, 1=x, 2=y
}

// pregenerateBits implements spec.md §4.E step 1: before running ops,
// scan them (and their sub-operations, recursively) for LessThan
// instances whose predicates are not already resolved by the
// predicate cache, and produce every needed bitwise-shared random
// number in one nested batch rather than letting each LessThan drive
// its own LSB's GenerateBitwiseRandomNumber independently. This saves
// rounds: one nested BatchGenerateBitwiseRandomNumbers amortizes the
// retry overhead across every comparison scheduled this round instead
// of paying it per comparison.
func (d *Driver) pregenerateBits(ops []Operation) error {
	var reqs []lessThanRequest
	for _, op := range ops {
		Walk(op, func(o Operation) {
			lt, ok := o.(*LessThan)
			if !ok {
				return
			}
			for i, key := range [3]string{lt.keyA, lt.keyB, lt.keyDiff} {
				if d.ctx.Cache != nil {
					if _, cached := d.ctx.Cache.Get(key); cached {
						continue
					}
				}
				reqs = append(reqs, lessThanRequest{lt: lt, predicate: i})
			}
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	// spec.md §4.E step 1: elect one worker (by barrier arrival) to
	// snapshot the current set, run the nested bit-generation batch,
	// and pop the snapshot; the remaining workers block on a counting
	// barrier until the elected worker opens it, then all proceed
	// together. Worker 0 plays the elected role; every worker
	// (including it) joins the same Block() call so the barrier's
	// threshold tracks the usual one-thread-per-peer worker count.
	numWorkers := d.ctx.NumPeers - 1
	if numWorkers < 1 {
		numWorkers = 1
	}
	gate := barrier.NewCounting(numWorkers)

	var (
		mu   sync.Mutex
		flat []field.Element
		rErr error
	)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		w := w
		go func() {
			defer wg.Done()
			if w == 0 {
				batch := NewBatchGenerateBitwiseRandomNumbers(len(reqs), d.ctx.NumPeers, reqs[0].lt.syncSh)
				result, err := d.RunNestedBatch([]Operation{batch}, 1)
				mu.Lock()
				switch {
				case err != nil:
					rErr = fmt.Errorf("pregenerate bitwise random numbers: %w", err)
				case !result.OK:
					rErr = fmt.Errorf("%w: pregenerate bitwise random numbers failed", ErrPrimitives)
				default:
					flat = result.PerOperation[0]
				}
				mu.Unlock()
				gate.Open()
			}
			gate.Block()
		}()
	}
	wg.Wait()
	if rErr != nil {
		return rErr
	}

	l := d.ctx.Field.BitLen()
	for i, req := range reqs {
		bits := flat[i*l : (i+1)*l]
		req.lt.SetPreGeneratedBits(req.predicate, bits)
	}
	return nil
}

func (d *Driver) exchangeRound(set *OperationSet, round int) error {
	myIndex := d.ctx.MyIndex
	d.logger.Printf("%s round %d: exchanging shares", IDString(myIndex), round)
	for other := 0; other < d.ctx.NumPeers; other++ {
		if other == myIndex {
			continue
		}
		pair := orderedPair(myIndex, other)
		if d.messenger.Down(pair) {
			// A crashed peer neither reads nor writes: skip both
			// directions and treat its contribution as missing.
			set.SetMissing(other)
			continue
		}
		outbound := set.OutboundFor(other)
		sizes := set.SizesFor(other)
		out := &Message{SenderID: myIndex, SenderIndex: myIndex, Data: outbound}

		var in *Message
		var err error
		if myIndex < other {
			if err = d.messenger.Send(pair, out); err == nil {
				in, err = d.receiveFrom(pair, other)
			}
		} else {
			in, err = d.receiveFrom(pair, other)
			if err == nil {
				err = d.messenger.Send(pair, out)
			}
		}
		if err != nil {
			return fmt.Errorf("round %d, peer %d: %w", round, other, err)
		}

		if in == nil {
			set.SetMissing(other)
			continue
		}
		set.Distribute(other, sizes, in.Data)
		d.stats.AddBytes(round, len(in.Data)*8+len(outbound)*8)
	}
	return nil
}

// receiveFrom returns nil, nil when other is known down, signalling a
// dummy (missing) message instead of attempting a Receive that would
// never complete.
func (d *Driver) receiveFrom(pair [2]int, other int) (*Message, error) {
	if d.messenger.Down(pair) {
		return nil, nil
	}
	return d.messenger.Receive(pair)
}

func orderedPair(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
