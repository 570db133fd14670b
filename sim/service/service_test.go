package service

import (
	"bytes"
	"io"
	"testing"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/workload"
	"github.com/stretchr/testify/require"
)

// capture wires a FiniFunc that stashes the final committed state pointer
// into dst, for assertions once the run has completed.
func capture[T sim.LPState](dst *T) sim.FiniFunc {
	return func(self sim.Sid, state sim.LPState, w io.Writer) {
		*dst = state.(T)
	}
}

// TestS1SingleTask exercises spec §8's S1 scenario end to end: a single
// task through master(0)-link(1)-machine(2).
func TestS1SingleTask(t *testing.T) {
	table := routing.NewTable()
	table.Add(0, 2, routing.Route{1})

	var master *MasterState
	var link *LinkState
	var machine *MachineState

	dispatcher := NewDispatcher(table, sim.OffsetLegacy)
	rt := sim.NewRuntime(sim.Config{Mode: sim.Sequential}, dispatcher)
	require.NoError(t, rt.Register(0, NewMasterInit([]sim.Sid{2}, scheduler.NewRoundRobin(), workload.NewConstant(50, 80, 1)), capture(&master)))
	require.NoError(t, rt.Register(1, NewLinkInit(0, 2, 5, 0, 1), capture(&link)))
	require.NoError(t, rt.Register(2, NewMachineInit(1.0 /* power=2 / cores=2 */, 0, 2), capture(&machine)))

	var out bytes.Buffer
	require.NoError(t, rt.Run(&out))

	require.Equal(t, uint64(1), master.Metrics.CompletedTasks)
	require.Equal(t, uint64(1), machine.Metrics.ProcTasks)
	require.Equal(t, 50.0, machine.Metrics.ProcTime)
	require.Equal(t, uint64(2), link.Metrics.CommTasks)
}

// TestS2RoundRobinFairness exercises the round-robin fairness property
// from S2 (simplified to direct master-machine links, isolating the
// scheduling property from exact ring wiring): 100 tasks split evenly
// across 4 machines.
func TestS2RoundRobinFairness(t *testing.T) {
	table := routing.NewTable()
	machines := []sim.Sid{2, 4, 6, 8}
	links := map[sim.Sid]sim.Sid{1: 2, 3: 4, 5: 6, 7: 8}
	for linkSid, machineSid := range links {
		table.Add(0, machineSid, routing.Route{linkSid})
	}

	var master *MasterState
	captured := make(map[sim.Sid]**MachineState)

	dispatcher := NewDispatcher(table, sim.OffsetLegacy)
	rt := sim.NewRuntime(sim.Config{Mode: sim.Sequential}, dispatcher)
	require.NoError(t, rt.Register(0, NewMasterInit(machines, scheduler.NewRoundRobin(), workload.NewConstant(50, 80, 100)), capture(&master)))
	for linkSid, machineSid := range links {
		require.NoError(t, rt.Register(linkSid, NewLinkInit(0, machineSid, 5, 0, 1), nil))
		ms := machineSid
		var mstate *MachineState
		require.NoError(t, rt.Register(machineSid, NewMachineInit(1, 0, 2), capture(&mstate)))
		captured[ms] = &mstate
	}

	var out bytes.Buffer
	require.NoError(t, rt.Run(&out))

	require.Equal(t, uint64(100), master.Metrics.CompletedTasks)
	total := uint64(0)
	for _, machineSid := range machines {
		ms := *captured[machineSid]
		require.Equal(t, uint64(25), ms.Metrics.ProcTasks)
		total += ms.Metrics.ProcTasks
	}
	require.Equal(t, uint64(100), total)
}

// TestS3StarWithSwitch exercises S3: master-link-switch-linkN-machineN for
// N machines, checking the switch's packet count invariant (each task
// crosses the switch on outbound and return).
func TestS3StarWithSwitch(t *testing.T) {
	const n = 3
	const tasksPerRun = 6 // two tasks per machine under round-robin

	table := routing.NewTable()
	var machineIDs []sim.Sid
	portLinkToSwitch := sim.Sid(1)
	switchSid := sim.Sid(2)
	nextSid := sim.Sid(3)
	leafLinks := []sim.Sid{}

	for i := 0; i < n; i++ {
		leafLink := nextSid
		nextSid++
		machine := nextSid
		nextSid++
		leafLinks = append(leafLinks, leafLink)
		machineIDs = append(machineIDs, machine)
		table.Add(0, machine, routing.Route{portLinkToSwitch, leafLink})
	}

	ports := append([]sim.Sid{portLinkToSwitch}, leafLinks...)

	var master *MasterState
	var sw *SwitchState

	dispatcher := NewDispatcher(table, sim.OffsetLegacy)
	rt := sim.NewRuntime(sim.Config{Mode: sim.Sequential}, dispatcher)
	require.NoError(t, rt.Register(0, NewMasterInit(machineIDs, scheduler.NewRoundRobin(), workload.NewConstant(50, 80, tasksPerRun)), capture(&master)))
	require.NoError(t, rt.Register(portLinkToSwitch, NewLinkInit(0, switchSid, 5, 0, 1), nil))
	require.NoError(t, rt.Register(switchSid, NewSwitchInit(ports, 5, 0, 1), capture(&sw)))
	for i, machine := range machineIDs {
		require.NoError(t, rt.Register(leafLinks[i], NewLinkInit(switchSid, machine, 5, 0, 1), nil))
		require.NoError(t, rt.Register(machine, NewMachineInit(1, 0, 2), nil))
	}

	var out bytes.Buffer
	require.NoError(t, rt.Run(&out))

	require.Equal(t, uint64(tasksPerRun), master.Metrics.CompletedTasks)
	require.Equal(t, uint64(2*tasksPerRun), sw.Metrics.CommTasks, "each task crosses the switch on outbound and return")
}

// TestS6RoutingTableLookupFailure exercises S6: asking for a route that
// was never registered is fatal at event-processing time.
func TestS6RoutingTableLookupFailure(t *testing.T) {
	table := routing.NewTable()
	table.Add(0, 2, routing.Route{1})

	dispatcher := NewDispatcher(table, sim.OffsetLegacy)
	rt := sim.NewRuntime(sim.Config{Mode: sim.Sequential}, dispatcher)
	// Master is wired to slave 999, for which no route was registered.
	require.NoError(t, rt.Register(0, NewMasterInit([]sim.Sid{999}, scheduler.NewRoundRobin(), workload.NewConstant(1, 1, 1)), nil))

	var out bytes.Buffer
	err := rt.Run(&out)
	require.Error(t, err)
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
}

// TestLinkProtocolErrorOnUnexpectedPrevious exercises spec §7's
// ProtocolError: a link receiving a packet whose previous hop matches
// neither of its endpoints is a fatal configuration problem.
func TestLinkProtocolErrorOnUnexpectedPrevious(t *testing.T) {
	table := routing.NewTable()
	table.Add(0, 2, routing.Route{1})

	dispatcher := NewDispatcher(table, sim.OffsetLegacy)
	rt := sim.NewRuntime(sim.Config{Mode: sim.Sequential}, dispatcher)
	require.NoError(t, rt.Register(0, func(self sim.Sid) sim.LPState { return &MasterState{Self: self} }, nil))
	require.NoError(t, rt.Register(1, NewLinkInit(0, 2, 5, 0, 1), nil))
	require.NoError(t, rt.Register(2, func(self sim.Sid) sim.LPState { return &MachineState{Self: self, CoreFreeTime: []float64{0}} }, nil))

	// Directly schedule a malformed arrival at the link: Previous (99)
	// matches neither endpoint (0 or 2).
	rt.Schedule(0, 1, 0, sim.TaskArrival, Arrival{
		Descriptor: routing.Descriptor{Src: 0, Dst: 2, Previous: 99, Offset: 1, Forward: true},
	})

	var out bytes.Buffer
	err := rt.Run(&out)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}
