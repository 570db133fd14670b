package sim

import "math"

// Mode selects the execution strategy.
type Mode int

const (
	// Sequential drives one global priority queue, dispatching strictly
	// in (timestamp, insertion-order) order. No rollback path exists.
	Sequential Mode = iota
	// Optimistic runs the Time-Warp engine: worker threads execute
	// speculatively and roll back on straggler arrival.
	Optimistic
)

// OffsetMode resolves the open question in spec §9 about the machine
// handler's return-path offset arithmetic. The C++ source sends the
// return event with offset = incoming.offset-2; symmetric reasoning
// suggests -1. Both are kept behind this flag; OffsetLegacy reproduces
// the documented S1 scenario and is the default.
type OffsetMode int

const (
	// OffsetLegacy subtracts two from the incoming offset on the return
	// leg, matching the original source's observed behavior.
	OffsetLegacy OffsetMode = iota
	// OffsetSymmetric subtracts one, matching naive symmetric reasoning
	// about how forward/return traversal should mirror each other.
	OffsetSymmetric
)

// Config holds runtime-wide knobs. Zero value is a valid sequential-mode
// configuration with no checkpointing and no core binding.
type Config struct {
	Mode Mode

	// Threads is the optimistic worker-pool size; 0 means hardware
	// concurrency. Ignored in Sequential mode.
	Threads int

	// CkptInterval is how many committed events an LP processes between
	// full-state snapshots in optimistic mode. 0 means every event.
	CkptInterval uint32

	// GVTPeriodMicros is the wall-clock interval, in microseconds,
	// between GVT sweeps in optimistic mode.
	GVTPeriodMicros int64

	// CoreBinding, when true, pins each optimistic worker to one OS
	// core at start-up. Ignored in Sequential mode and on platforms
	// without affinity support.
	CoreBinding bool

	// PRNGSeed seeds the per-LP partitioned RNG (see rng.go). Two runs
	// with the same seed and configuration must produce identical
	// committed output.
	PRNGSeed int64

	// ReturnOffsetMode resolves the machine handler's return-path offset
	// arithmetic (see OffsetMode).
	ReturnOffsetMode OffsetMode

	// TerminationTime is the simulation horizon: events with a strictly
	// greater timestamp are never dispatched. Zero or unset means
	// +Inf (run until the event queue drains).
	TerminationTime float64

	// Committed, if set, is polled after each commit; once it returns
	// true for every registered Sid the run terminates even if the
	// event queue/horizon has not been exhausted.
	Committed func(self Sid, state LPState) bool

	// TraceLevel selects optimistic-engine decision tracing: "none"
	// (default), "rollback", or "gvt". A string rather than
	// sim/trace.Level to avoid sim importing its own trace package (which
	// imports sim for Sid); timewarp validates and defaults it. Ignored
	// in Sequential mode, which has no rollback path to trace.
	TraceLevel string
}

// Horizon returns the effective termination time, defaulting to +Inf.
func (c Config) Horizon() float64 {
	if c.TerminationTime <= 0 {
		return math.Inf(1)
	}
	return c.TerminationTime
}
