package fabric

import (
	"context"
	"sync"
)

// barrier is a reusable counting rendezvous for a fixed-size group. It is
// the only suspension point in the protocol besides a probe-gated recv, per
// spec.md §5.
type barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	n     int
	count int
	gen   uint64
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)

	return b
}

func (b *barrier) Wait(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.gen
	b.count++

	if b.count == b.n {
		b.count = 0
		b.gen++
		b.cond.Broadcast()

		return nil
	}

	// The no-deadlock argument (spec.md §5) guarantees every member of the
	// group reaches its matching Wait call after the same fixed sequence
	// of generations, so this loop does not need a ctx-driven escape hatch
	// in the steady state; ctx.Err() is still surfaced once woken.
	for b.gen == gen {
		b.cond.Wait()
	}

	return ctx.Err()
}
