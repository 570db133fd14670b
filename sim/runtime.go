package sim

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// OptimisticEngineFunc is set by sim/timewarp's init() function. It is
// nil until something imports sim/timewarp (for side effect), at which
// point Config.Mode == Optimistic becomes runnable. This mirrors the
// teacher's NewKVStoreFunc/NewLatencyModelFunc registration pattern
// (sim/kv/register.go, sim/latency/register.go), used here to let the
// sequential engine in this package stay free of any dependency on the
// (much larger) optimistic engine package.
var OptimisticEngineFunc func(rt *Runtime, out io.Writer) error

// Runtime owns the LP registry (initializers, finalizers, the shared
// dispatcher) and the sequential execution engine. Optimistic execution
// is delegated to OptimisticEngineFunc.
type Runtime struct {
	config     Config
	dispatcher Dispatcher

	order  []Sid
	inits  map[Sid]InitFunc
	finis  map[Sid]FiniFunc
	states map[Sid]LPState

	rng   *PartitionedRNG
	queue *EventQueue
}

// NewRuntime creates a Runtime. dispatcher is the single handler shared
// by every LP (see sim/service.NewDispatcher).
func NewRuntime(config Config, dispatcher Dispatcher) *Runtime {
	return &Runtime{
		config:     config,
		dispatcher: dispatcher,
		inits:      make(map[Sid]InitFunc),
		finis:      make(map[Sid]FiniFunc),
		states:     make(map[Sid]LPState),
		rng:        NewPartitionedRNG(config.PRNGSeed),
		queue:      NewEventQueue(),
	}
}

// Register adds an LP. fini may be nil (no finalizer report). Registering
// the same sid twice is a configuration error.
func (rt *Runtime) Register(sid Sid, init InitFunc, fini FiniFunc) error {
	if init == nil {
		return NewConfigError("Register", errNilInit(sid))
	}
	if _, dup := rt.inits[sid]; dup {
		return NewConfigError("Register", errDuplicateSid(sid))
	}
	rt.inits[sid] = init
	rt.finis[sid] = fini
	rt.order = append(rt.order, sid)
	return nil
}

// Config returns the Runtime's configuration, for engines built in other
// packages (sim/timewarp) that need it.
func (rt *Runtime) Config() Config { return rt.config }

// Dispatcher returns the shared Dispatcher.
func (rt *Runtime) Dispatcher() Dispatcher { return rt.dispatcher }

// Sids returns the registered LP ids in registration order.
func (rt *Runtime) Sids() []Sid {
	out := make([]Sid, len(rt.order))
	copy(out, rt.order)
	return out
}

// Init returns the InitFunc for sid, or nil if unregistered.
func (rt *Runtime) Init(sid Sid) InitFunc { return rt.inits[sid] }

// Fini returns the FiniFunc for sid, or nil if unregistered or not set.
func (rt *Runtime) Fini(sid Sid) FiniFunc { return rt.finis[sid] }

// RNG returns the Runtime's partitioned RNG.
func (rt *Runtime) RNG() *PartitionedRNG { return rt.rng }

// Schedule implements EventSink for sequential mode: every scheduled
// event goes straight onto the one global heap.
func (rt *Runtime) Schedule(sender, receiver Sid, timestamp float64, kind EventKind, payload Payload) {
	rt.queue.Push(sender, receiver, timestamp, kind, payload)
}

// allCommitted reports whether Config.Committed holds for every sid in
// ids, the sequential-mode twin of timewarp.Engine.allCommitted. Returns
// false when no predicate was configured.
func (rt *Runtime) allCommitted(ids []Sid) bool {
	if rt.config.Committed == nil {
		return false
	}
	for _, sid := range ids {
		if !rt.config.Committed(sid, rt.states[sid]) {
			return false
		}
	}
	return true
}

// Run executes the simulation to completion and writes finalizer output
// to out. In Sequential mode this package drives the loop directly; in
// Optimistic mode it delegates to OptimisticEngineFunc, returning an
// error if sim/timewarp was never imported.
func (rt *Runtime) Run(out io.Writer) error {
	switch rt.config.Mode {
	case Sequential:
		return rt.runSequential(out)
	case Optimistic:
		if OptimisticEngineFunc == nil {
			return NewConfigError("Run", errOptimisticUnavailable{})
		}
		return OptimisticEngineFunc(rt, out)
	default:
		return NewConfigError("Run", errUnknownMode(rt.config.Mode))
	}
}

// runSequential drains the global event heap in timestamp order. Handlers
// signal fatal configuration/routing/protocol violations (spec §7) by
// panicking with an error value; recovered here and turned back into a
// returned error so callers (the CLI) can set a non-zero exit code without
// every handler threading an error return through the Dispatcher.
func (rt *Runtime) runSequential(out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
				return
			}
			panic(r)
		}
	}()

	ids := append([]Sid(nil), rt.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, sid := range ids {
		state := rt.inits[sid](sid)
		rt.states[sid] = state
	}
	for _, sid := range ids {
		rt.Schedule(sid, sid, 0, LPInit, nil)
		rt.Schedule(sid, sid, 0, TaskSchedulerInit, nil)
	}

	horizon := rt.config.Horizon()
	for rt.queue.Len() > 0 {
		ev := rt.queue.Pop()
		if ev.timestamp > horizon {
			break
		}
		state := rt.states[ev.receiver]
		if state == nil {
			logrus.Warnf("sim: event for unregistered sid %d dropped", ev.receiver)
			continue
		}
		ctx := NewContext(ev.timestamp, ev.receiver, ev.kind, ev.payload, state, rt, rt.rng.ForLP(ev.receiver))
		rt.dispatcher(ctx)
		if rt.allCommitted(ids) {
			break
		}
	}

	for _, sid := range ids {
		state := rt.states[sid]
		ctx := NewContext(horizon, sid, LPFini, nil, state, rt, rt.rng.ForLP(sid))
		rt.dispatcher(ctx)
		if fini := rt.finis[sid]; fini != nil {
			fini(sid, state, out)
		}
	}
	return nil
}
