package service

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/task"
)

// NewMachineInit returns the InitFunc for a machine LP. powerPerCore is
// already normalized per-core (a builder dividing a model's raw "power"
// parameter by core count happens before this is called, not here).
func NewMachineInit(powerPerCore, loadFactor float64, coreCount int) sim.InitFunc {
	return func(self sim.Sid) sim.LPState {
		return &MachineState{
			Self:         self,
			PowerPerCore: powerPerCore,
			LoadFactor:   loadFactor,
			CoreFreeTime: make([]float64, coreCount),
		}
	}
}

func dispatchMachine(ctx *sim.Context, m *MachineState, table *routing.Table, offsetMode sim.OffsetMode) {
	switch ctx.Kind {
	case sim.LPInit, sim.LPFini, sim.TaskSchedulerInit:
		return
	case sim.TaskArrival:
		onMachineArrival(ctx, m, table, offsetMode)
	default:
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}
}

// onMachineArrival implements spec §4.3: forward a packet bound elsewhere,
// otherwise run it to completion on the least-loaded core and send the
// result back the way it came.
func onMachineArrival(ctx *sim.Context, m *MachineState, table *routing.Table, offsetMode sim.OffsetMode) {
	arr, ok := ctx.Payload.(Arrival)
	if !ok {
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}

	if arr.Descriptor.Dst != m.Self {
		m.Metrics.ForwardedPackets++
		route, err := table.Get(arr.Descriptor.Src, arr.Descriptor.Dst)
		if err != nil {
			panic(&RoutingError{Src: arr.Descriptor.Src, Dst: arr.Descriptor.Dst, Err: err})
		}
		next, nd := routing.Forward(arr.Descriptor, m.Self, route)
		ctx.Schedule(next, ctx.Now, sim.TaskArrival, Arrival{Task: arr.Task, Descriptor: nd})
		return
	}

	procTime := arr.Task.ProcSize / ((1 - m.LoadFactor) * m.PowerPerCore)

	coreIdx := 0
	for i, free := range m.CoreFreeTime {
		if free < m.CoreFreeTime[coreIdx] {
			coreIdx = i
		}
	}
	waiting := max(0, m.CoreFreeTime[coreIdx]-ctx.Now)
	departure := ctx.Now + waiting + procTime
	m.CoreFreeTime[coreIdx] = departure

	m.Metrics.ProcMflops += arr.Task.ProcSize
	m.Metrics.ProcTime += procTime
	m.Metrics.ProcTasks++
	m.Metrics.LastActivityTime = ctx.Now

	newOffset := arr.Descriptor.Offset - 1
	if offsetMode == sim.OffsetLegacy {
		newOffset = arr.Descriptor.Offset - 2
	}
	nd := routing.Descriptor{
		Src:      arr.Descriptor.Src,
		Dst:      arr.Descriptor.Dst,
		Previous: m.Self,
		Offset:   newOffset,
		Forward:  false,
	}
	ctx.Schedule(arr.Descriptor.Previous, departure, sim.TaskArrival, Arrival{
		Task:       arr.Task.WithCompletionState(task.Processed),
		Descriptor: nd,
	})
}
