package sim

import (
	"container/heap"
	"math"
)

// queuedEvent is one entry in the sequential-mode event queue. seq is a
// monotone insertion counter used to break (timestamp) ties
// deterministically, the same role the teacher's BaseEvent.eventID plays
// via atomic.AddUint64 in its cluster event queue.
type queuedEvent struct {
	sender, receiver Sid
	timestamp        float64
	kind             EventKind
	payload          Payload
	seq              uint64
}

// eventHeap implements container/heap.Interface, ordered by
// (timestamp, seq) exactly like the teacher's EventQueue
// (sim/simulator.go) — see the canonical container/heap.IntHeap example
// it's modeled on.
type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue is a priority queue of events keyed by (timestamp, seq).
// Used directly by the sequential Runtime; exported so tests and
// alternate drivers can build one standalone.
type EventQueue struct {
	h       eventHeap
	nextSeq uint64
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	heap.Init(&q.h)
	return q
}

// Push schedules an event, assigning it the next insertion-order tie
// breaker.
func (q *EventQueue) Push(sender, receiver Sid, timestamp float64, kind EventKind, payload Payload) {
	seq := q.nextSeq
	q.nextSeq++
	heap.Push(&q.h, queuedEvent{sender: sender, receiver: receiver, timestamp: timestamp, kind: kind, payload: payload, seq: seq})
}

// Len reports the number of pending events.
func (q *EventQueue) Len() int { return q.h.Len() }

// Pop removes and returns the minimum (timestamp, seq) event. Callers
// must check Len() > 0 first.
func (q *EventQueue) Pop() queuedEvent {
	return heap.Pop(&q.h).(queuedEvent)
}

// PeekTimestamp returns the timestamp of the next event without removing
// it, or +Inf if the queue is empty.
func (q *EventQueue) PeekTimestamp() float64 {
	if q.h.Len() == 0 {
		return math.Inf(1)
	}
	return q.h[0].timestamp
}
