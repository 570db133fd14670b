package service

import "github.com/distsim/distsim/sim"

// NewLinkInit returns the InitFunc for a point-to-point link LP.
func NewLinkInit(from, to sim.Sid, bandwidth, loadFactor, latency float64) sim.InitFunc {
	return func(self sim.Sid) sim.LPState {
		return &LinkState{
			Self:       self,
			From:       from,
			To:         to,
			Bandwidth:  bandwidth,
			LoadFactor: loadFactor,
			Latency:    latency,
		}
	}
}

func dispatchLink(ctx *sim.Context, l *LinkState) {
	switch ctx.Kind {
	case sim.LPInit, sim.LPFini, sim.TaskSchedulerInit:
		return
	case sim.TaskArrival:
		onLinkArrival(ctx, l)
	default:
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}
}

// onLinkArrival implements spec §4.4's link case: a single-server FIFO
// queue over wall time that picks its receiver from {from,to}\{previous}
// without ever consulting the route table or touching the descriptor's
// offset.
func onLinkArrival(ctx *sim.Context, l *LinkState) {
	arr, ok := ctx.Payload.(Arrival)
	if !ok {
		panic(errUnknownEventKind{Self: ctx.Self, Kind: ctx.Kind})
	}

	var receiver sim.Sid
	switch arr.Descriptor.Previous {
	case l.From:
		receiver = l.To
	case l.To:
		receiver = l.From
	default:
		panic(&ProtocolError{Self: l.Self, Previous: arr.Descriptor.Previous})
	}

	commTime := l.Latency + arr.Task.CommSize/((1-l.LoadFactor)*l.Bandwidth)
	waiting := max(0, l.AvailableTime-ctx.Now)
	departure := ctx.Now + waiting + commTime
	l.AvailableTime = departure

	l.Metrics.CommMbits += arr.Task.CommSize
	l.Metrics.CommTime += commTime
	l.Metrics.CommTasks++
	l.LVT = ctx.Now

	nd := arr.Descriptor
	nd.Previous = l.Self
	ctx.Schedule(receiver, departure, sim.TaskArrival, Arrival{Task: arr.Task, Descriptor: nd})
}
