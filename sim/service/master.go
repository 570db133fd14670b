package service

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/task"
	"github.com/distsim/distsim/sim/workload"
)

// NewMasterInit returns the InitFunc for a master LP. slaves and sched are
// wired together once at construction time (spec §9's ownership note:
// slave lists are small immutable arrays built at model-construction
// time), so nothing but scheduler-internal cursor state is later mutated
// by dispatch.
func NewMasterInit(slaves []sim.Sid, sched scheduler.Scheduler, wl workload.Workload) sim.InitFunc {
	return func(self sim.Sid) sim.LPState {
		for _, s := range slaves {
			sched.AddResource(s)
		}
		return &MasterState{
			Self:     self,
			Slaves:   append([]sim.Sid(nil), slaves...),
			Sched:    sched,
			Workload: wl,
		}
	}
}

func dispatchMaster(ctx *sim.Context, m *MasterState, table *routing.Table) {
	switch ctx.Kind {
	case sim.LPInit, sim.LPFini:
		return
	case sim.TaskSchedulerInit:
		onMasterSchedulerInit(ctx, m, table)
	case sim.TaskArrival:
		onMasterArrival(ctx, m, table)
	default:
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}
}

func onMasterSchedulerInit(ctx *sim.Context, m *MasterState, table *routing.Table) {
	if m.Workload == nil {
		return
	}
	m.Sched.OnInit(ctx.Rand(), m.Workload, ctx.Now, dispatchToSlave(ctx, m, table))
}

// onMasterArrival implements spec §4.5's two arrival cases: a completed
// task either closes the loop at its origin or, on an intermediate hop of
// its return journey, is forwarded further toward origin.
func onMasterArrival(ctx *sim.Context, m *MasterState, table *routing.Table) {
	arr, ok := ctx.Payload.(Arrival)
	if !ok {
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}

	if arr.Task.CompletionState != task.Processed {
		// A JustGenerated arrival addressed to self: treat identically to
		// an on_completed_task trigger, minus the completion accounting.
		if m.Workload != nil {
			m.Sched.OnCompletedTask(ctx.Rand(), m.Workload, ctx.Now, dispatchToSlave(ctx, m, table))
		}
		return
	}

	if arr.Task.Origin == m.Self {
		m.Metrics.CompletedTasks++
		m.Metrics.LastActivityTime = ctx.Now
		if m.Workload != nil {
			m.Sched.OnCompletedTask(ctx.Rand(), m.Workload, ctx.Now, dispatchToSlave(ctx, m, table))
		}
		return
	}

	route, err := table.Get(arr.Descriptor.Src, arr.Descriptor.Dst)
	if err != nil {
		panic(&RoutingError{Src: arr.Descriptor.Src, Dst: arr.Descriptor.Dst, Err: err})
	}
	next, nd := routing.Forward(arr.Descriptor, m.Self, route)
	ctx.Schedule(next, ctx.Now, sim.TaskArrival, Arrival{Task: arr.Task, Descriptor: nd})
}

// dispatchToSlave returns the scheduler.Dispatch callback that mints a
// task id, looks up the route to slave, and emits the first-hop
// TASK_ARRIVAL (spec §4.5(b)) at the arrival time the workload computed —
// ctx.Now for closed-loop workloads, now advanced by Expo(λ) or a fixed
// offset for the open-loop ones (spec §4.7).
func dispatchToSlave(ctx *sim.Context, m *MasterState, table *routing.Table) scheduler.Dispatch {
	return func(slave sim.Sid, proc, comm, arrivalTime float64) {
		id := task.NewID(m.workloadCounter, m.Self)
		m.workloadCounter++

		route, err := table.Get(m.Self, slave)
		if err != nil {
			panic(&RoutingError{Src: m.Self, Dst: slave, Err: err})
		}
		next, nd := routing.FirstHop(m.Self, slave, route)
		t := task.Task{Tid: id, Origin: m.Self, ProcSize: proc, CommSize: comm, CompletionState: task.JustGenerated}
		ctx.Schedule(next, arrivalTime, sim.TaskArrival, Arrival{Task: t, Descriptor: nd})
	}
}
