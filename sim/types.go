package sim

import "io"

// Sid names one logical process (a master, machine, link, or switch).
// Sids are dense and assigned by the model builder; the zero value is a
// valid id, not a sentinel.
type Sid uint32

// EventKind tags the payload carried by an Event so a single dispatcher
// can switch on it. Reserved kinds are defined below; model code is free
// to mint its own.
type EventKind string

// Reserved event kinds, per the runtime's public contract: every LP
// receives exactly one LPInit (first) and, at termination, exactly one
// LPFini (last).
const (
	LPInit            EventKind = "LP_INIT"
	LPFini            EventKind = "LP_FINI"
	TaskArrival       EventKind = "TASK_ARRIVAL"
	TaskSchedulerInit EventKind = "TASK_SCHEDULER_INIT"
)

// Payload is the event body; its concrete type is determined by Kind and
// is owned entirely by model code (sim never inspects it). Payloads are
// copied by value into receiver mailboxes, never shared by pointer, so
// that anti-message cancellation cannot race with in-place mutation.
type Payload any

// LPState is the tagged-union design the engine dispatches over. Model
// code implements one concrete type per LP variant (master, machine,
// link, switch); the runtime only ever touches state through this
// interface. Clone must return a deep copy suitable for a checkpoint: the
// original and the clone must not alias any mutable field.
type LPState interface {
	Clone() LPState
}

// InitFunc constructs the initial state for an LP. Called once per LP,
// before that LP's first event (an LPInit event carrying a nil payload)
// is dispatched.
type InitFunc func(self Sid) LPState

// FiniFunc runs once per LP at termination, after its LPFini event has
// been dispatched and, in optimistic mode, after GVT has swept past the
// end of the run. It is the only place state is guaranteed never to roll
// back again; implementations use it to print a metrics report to w.
type FiniFunc func(self Sid, state LPState, w io.Writer)

// Dispatcher is the single event handler every LP shares, parameterized
// by the Context it is handed. Model code implements this once, as a
// closure created by the builder, and switches on ctx.State's concrete
// type and then ctx.Kind — keeping all LP-variant dispatch in one place
// (see sim/service.NewDispatcher).
type Dispatcher func(ctx *Context)
