package dispatch

import "sync"

// Barrier is a reusable synchronization point for a fixed number of
// lock-step threads. Every thread of a block must arrive before any
// thread is released, and the barrier is immediately reusable for the
// next phase of the launch.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation int
}

// NewBarrier creates a barrier for the given number of threads
func NewBarrier(parties int) *Barrier {
	if parties <= 0 {
		panic("barrier requires at least one party")
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Await blocks until all parties have arrived. The last arrival
// releases the group and advances the barrier generation.
func (b *Barrier) Await() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// Parties returns the number of threads the barrier synchronizes
func (b *Barrier) Parties() int {
	return b.parties
}
