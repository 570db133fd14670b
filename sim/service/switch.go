package service

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
)

// NewSwitchInit returns the InitFunc for a switch LP with the given ports.
func NewSwitchInit(ports []sim.Sid, bandwidth, loadFactor, latency float64) sim.InitFunc {
	return func(self sim.Sid) sim.LPState {
		return &SwitchState{
			Self:       self,
			Ports:      append([]sim.Sid(nil), ports...),
			Bandwidth:  bandwidth,
			LoadFactor: loadFactor,
			Latency:    latency,
		}
	}
}

func dispatchSwitch(ctx *sim.Context, s *SwitchState, table *routing.Table) {
	switch ctx.Kind {
	case sim.LPInit, sim.LPFini, sim.TaskSchedulerInit:
		return
	case sim.TaskArrival:
		onSwitchArrival(ctx, s, table)
	default:
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}
}

// onSwitchArrival implements spec §4.4's switch case: same single-server
// FIFO transmission-time model as a link, but the next hop always comes
// from the route descriptor rather than a fixed peer.
func onSwitchArrival(ctx *sim.Context, s *SwitchState, table *routing.Table) {
	arr, ok := ctx.Payload.(Arrival)
	if !ok {
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}

	if !s.hasPort(arr.Descriptor.Previous) {
		panic(&ProtocolError{Self: s.Self, Previous: arr.Descriptor.Previous})
	}

	route, err := table.Get(arr.Descriptor.Src, arr.Descriptor.Dst)
	if err != nil {
		panic(&RoutingError{Src: arr.Descriptor.Src, Dst: arr.Descriptor.Dst, Err: err})
	}
	next, nd := routing.Forward(arr.Descriptor, s.Self, route)

	commTime := s.Latency + arr.Task.CommSize/((1-s.LoadFactor)*s.Bandwidth)
	waiting := max(0, s.AvailableTime-ctx.Now)
	departure := ctx.Now + waiting + commTime
	s.AvailableTime = departure

	s.Metrics.CommMbits += arr.Task.CommSize
	s.Metrics.CommTime += commTime
	s.Metrics.CommTasks++
	s.LVT = ctx.Now

	ctx.Schedule(next, departure, sim.TaskArrival, Arrival{Task: arr.Task, Descriptor: nd})
}

func (s *SwitchState) hasPort(sid sim.Sid) bool {
	for _, p := range s.Ports {
		if p == sid {
			return true
		}
	}
	return false
}
