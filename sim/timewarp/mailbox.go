// Package timewarp implements the optimistic (Time-Warp) execution mode
// of the PDES runtime: a worker-goroutine pool, per-LP mailboxes that
// admit out-of-order (straggler) arrivals, checkpoint/rollback, and
// anti-message cancellation. It registers itself into sim's
// OptimisticEngineFunc from an init() function, the same side-effect-import
// wiring the package doc in sim/doc.go describes — sim.Config{Mode:
// Optimistic} only becomes runnable once something imports this package.
package timewarp

import (
	"container/heap"
	"sync"
)

// mailbox is one LP's inbox: a (timestamp, seq)-ordered heap of pending
// positive events, plus the bookkeeping needed to resolve anti-messages
// without ever letting a cancelled event reach dispatch. Every method
// locks; senders on other workers' threads call push concurrently with
// the owning worker's pop/rollback calls, per spec §5's "event-scheduling
// API is thread-safe via per-LP mailboxes protected by lightweight locks".
type mailbox struct {
	mu sync.Mutex
	h  msgHeap

	// pending tracks positive messages currently sitting in h, not yet
	// popped for dispatch.
	pending map[msgKey]bool
	// delivered tracks positive messages already dispatched and
	// committed into the owning LP's processed log. An anti-message
	// arriving for a delivered message means the owning worker must roll
	// back; that decision belongs on the owner's thread, so push only
	// enqueues the anti-message into h when it sees this case — it does
	// not touch LP state itself.
	delivered map[msgKey]bool
	// cancelled holds anti-messages that arrived before their positive
	// twin (can happen: an anti-message and a late-travelling original
	// can race across different paths). The eventual positive push is
	// silently dropped instead of being enqueued.
	cancelled map[msgKey]bool
}

func newMailbox() *mailbox {
	return &mailbox{
		pending:   make(map[msgKey]bool),
		delivered: make(map[msgKey]bool),
		cancelled: make(map[msgKey]bool),
	}
}

// push admits one message. For an anti-message it resolves as much as
// possible without touching LP state: annihilate a still-pending positive
// twin outright, record a pre-cancellation if the positive hasn't arrived
// yet, or (if the twin was already delivered) enqueue the anti-message so
// the owning worker discovers it on its next pop and performs the
// rollback itself.
func (b *mailbox) push(m message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := m.key()
	if m.negative {
		if b.pending[k] {
			delete(b.pending, k)
			// The positive twin is in h but unreachable without a scan;
			// mark it cancelled so pop() drops it silently when popped.
			b.cancelled[k] = true
			return
		}
		if b.delivered[k] {
			heap.Push(&b.h, m)
			return
		}
		b.cancelled[k] = true
		return
	}

	if b.cancelled[k] {
		delete(b.cancelled, k)
		return
	}
	b.pending[k] = true
	heap.Push(&b.h, m)
}

// popResult is what pop hands back to the owning worker: a message to
// interpret, or ok=false if the mailbox is empty. Pre-cancelled positives
// are consumed inside pop's own loop, so callers of pop never see them.
type popResult struct {
	msg message
	ok  bool
}

// pop removes and returns the minimum (timestamp, seq) entry, skipping
// over any entries that pending bookkeeping has already resolved (a
// positive whose cancellation raced in after it was enqueued). Only the
// owning worker ever calls pop.
func (b *mailbox) pop() popResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.h.Len() > 0 {
		m := heap.Pop(&b.h).(message)
		k := m.key()
		if !m.negative {
			delete(b.pending, k)
			if b.cancelled[k] {
				delete(b.cancelled, k)
				continue
			}
			return popResult{msg: m, ok: true}
		}
		return popResult{msg: m, ok: true}
	}
	return popResult{}
}

// isDelivered reports whether a message with this key has been dispatched
// and committed (not yet rolled back). Owner-thread only.
func (b *mailbox) isDelivered(k msgKey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delivered[k]
}

// markDelivered records that m has been dispatched. Owner-thread only.
func (b *mailbox) markDelivered(k msgKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delivered[k] = true
}

// clearDelivered undoes markDelivered, e.g. after an anti-message rolled
// the delivery back. Owner-thread only.
func (b *mailbox) clearDelivered(k msgKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.delivered, k)
}

// reinsert pushes an already-seen positive message back in, as part of
// "coasting forward" after a rollback: it re-enters exactly as it would
// have via push, except it can never be a fresh anti-message target since
// it was already delivered before the rollback discarded that fact.
func (b *mailbox) reinsert(m message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := m.key()
	delete(b.delivered, k)
	if b.cancelled[k] {
		delete(b.cancelled, k)
		return
	}
	b.pending[k] = true
	heap.Push(&b.h, m)
}

// minTimestamp returns the timestamp of the earliest entry in the
// mailbox, or +Inf if it is empty. Used by GVT computation.
func (b *mailbox) minTimestamp() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ts, ok := b.h.peekTimestamp()
	if !ok {
		return posInf
	}
	return ts
}

// empty reports whether the mailbox has no pending work at all —
// including pre-cancellation bookkeeping, so a "cancelled waiting for a
// positive that will never come" entry still counts as non-empty.
func (b *mailbox) empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.h.Len() == 0 && len(b.cancelled) == 0
}
