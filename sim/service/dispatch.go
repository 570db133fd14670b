package service

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
)

// NewDispatcher builds the single sim.Dispatcher shared by every LP in a
// model: one type switch on ctx.State's concrete type, then a second
// switch on ctx.Kind within each variant's own file. table is the shared,
// read-only routing table consulted by every forwarding decision.
func NewDispatcher(table *routing.Table, offsetMode sim.OffsetMode) sim.Dispatcher {
	return func(ctx *sim.Context) {
		switch state := ctx.State.(type) {
		case *MasterState:
			dispatchMaster(ctx, state, table)
		case *MachineState:
			dispatchMachine(ctx, state, table, offsetMode)
		case *LinkState:
			dispatchLink(ctx, state)
		case *SwitchState:
			dispatchSwitch(ctx, state, table)
		default:
			panic(errUnknownLPState{Self: ctx.Self})
		}
	}
}
