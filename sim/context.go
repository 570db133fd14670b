package sim

import "math/rand"

// EventSink is how a Context turns Schedule calls into actual delivery.
// The sequential Runtime and the optimistic timewarp.Engine each
// implement it differently (push onto a global heap vs. append to a
// per-LP input queue plus an output log for anti-messages), but handler
// code never needs to know which.
type EventSink interface {
	Schedule(sender, receiver Sid, timestamp float64, kind EventKind, payload Payload)
}

// Context is the per-dispatch view a Dispatcher operates on. It is
// constructed fresh for every event; handlers must not retain a pointer
// to it past the call.
type Context struct {
	Now     float64
	Self    Sid
	Kind    EventKind
	Payload Payload
	State   LPState

	sink EventSink
	rng  *rand.Rand
}

// NewContext builds a Context. Engines (sim.Runtime in sequential mode,
// timewarp.Engine in optimistic mode) call this; model code never does.
func NewContext(now float64, self Sid, kind EventKind, payload Payload, state LPState, sink EventSink, rng *rand.Rand) *Context {
	return &Context{Now: now, Self: self, Kind: kind, Payload: payload, State: state, sink: sink, rng: rng}
}

// Schedule enqueues a new event addressed to receiver at timestamp,
// sent by the LP currently being dispatched. The runtime tolerates
// receiver == ctx.Self (self-scheduling into one's own future).
func (c *Context) Schedule(receiver Sid, timestamp float64, kind EventKind, payload Payload) {
	c.sink.Schedule(c.Self, receiver, timestamp, kind, payload)
}

// Rand returns this LP's local PRNG. Handlers performing random draws
// (workload generation, randomized policies) must use this and never
// math/rand's global source: optimistic replay after rollback is only
// deterministic if every draw is reproducible from LP-local state.
func (c *Context) Rand() *rand.Rand {
	return c.rng
}
