// Package sim provides the core discrete-event simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - types.go: Sid, EventKind, LPState, the handler contract
//   - context.go: Context, the per-dispatch view handlers operate on
//   - event.go: the sequential-mode event queue (container/heap)
//   - runtime.go: LP registry, sequential Run loop, LP_INIT/LP_FINI lifecycle
//
// # Architecture
//
// sim defines the engine-facing interfaces and the sequential execution
// mode; the optimistic (Time-Warp) execution mode lives in sim/timewarp
// and is wired in by side-effect import, the same pattern this package's
// sibling packages use to avoid import cycles:
//   - sim/timewarp/: optimistic scheduler, GVT, checkpoint/rollback
//   - sim/routing/: routing-table lookups and route descriptors
//   - sim/task/: the Task record and tid minting
//   - sim/service/: master/machine/link/switch protocol handlers
//   - sim/scheduler/: slave-assignment policies
//   - sim/workload/: task-stream generators
//   - sim/model/: declarative LP registration (Builder) producing a Runtime
//   - sim/metrics/: per-LP metrics and finalizer report printing
//
// sim/timewarp registers itself into this package's OptimisticEngineFunc
// variable from an init() function; importing sim/timewarp for its
// side effect is what makes Config.Mode == Optimistic runnable.
package sim
