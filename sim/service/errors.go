package service

import (
	"fmt"

	"github.com/distsim/distsim/sim"
)

// RoutingError marks a handler's request for a route that does not exist
// in the table. Per spec §7 this is fatal at event-processing time.
type RoutingError struct {
	Src, Dst sim.Sid
	Err      error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing error %d->%d: %v", e.Src, e.Dst, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// ProtocolError marks a link or switch receiving a packet whose Previous
// field matches none of its own endpoints/ports. Per spec §7 this is
// fatal: the configuration that produced it is unreliable.
type ProtocolError struct {
	Self     sim.Sid
	Previous sim.Sid
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error at %d: unexpected previous hop %d", e.Self, e.Previous)
}

// errUnknownEventKind backs the "unknown event kinds abort" clause of
// spec §4.1's failure semantics.
type errUnknownEventKind struct {
	Self sim.Sid
	Kind sim.EventKind
}

func (e errUnknownEventKind) Error() string {
	return fmt.Sprintf("lp %d: unknown event kind %q", e.Self, e.Kind)
}

// errUnknownLPState backs the same clause for a Dispatcher that receives
// an sim.LPState concrete type it was not built to handle.
type errUnknownLPState struct {
	Self sim.Sid
}

func (e errUnknownLPState) Error() string {
	return fmt.Sprintf("lp %d: unrecognized LPState type", e.Self)
}
