package model

import (
	"bytes"
	"io"
	"testing"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/service"
	"github.com/distsim/distsim/sim/workload"
	"github.com/stretchr/testify/require"
)

func TestBuilderRejectsDuplicateSid(t *testing.T) {
	b := NewBuilder(sim.Config{Mode: sim.Sequential})
	require.NoError(t, b.AddMachine(2, 2, 0, 2, nil))
	require.Error(t, b.AddMachine(2, 2, 0, 2, nil))
}

func TestBuilderDividesPowerByCoreCount(t *testing.T) {
	b := NewBuilder(sim.Config{Mode: sim.Sequential})
	require.NoError(t, b.AddMachine(2, 2, 0, 2, nil))
	st := b.registrations[0].init(2).(*service.MachineState)
	require.Equal(t, 1.0, st.PowerPerCore)
}

func TestBuilderBuildRunsS1EndToEnd(t *testing.T) {
	b := NewBuilder(sim.Config{Mode: sim.Sequential})

	var master *service.MasterState
	captureMaster := func(self sim.Sid, state sim.LPState, w io.Writer) {
		master = state.(*service.MasterState)
	}

	require.NoError(t, b.AddMaster(0, []sim.Sid{2}, scheduler.NewRoundRobin(), workload.NewConstant(50, 80, 1), captureMaster))
	require.NoError(t, b.AddLink(1, 0, 2, 5, 0, 1, nil))
	require.NoError(t, b.AddMachine(2, 2, 0, 2, nil))
	b.AddRoute(0, 2, routing.Route{1})

	rt, err := b.Build()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, rt.Run(&out))
	require.Equal(t, uint64(1), master.Metrics.CompletedTasks)
}

func TestBuilderBuildFailsWithNoRegistrations(t *testing.T) {
	b := NewBuilder(sim.Config{Mode: sim.Sequential})
	_, err := b.Build()
	require.Error(t, err)
}

func TestLinearTopologyRouteIsLinkIDsAcrossIntermediateMachines(t *testing.T) {
	b, err := LinearTopology(TopologyParams{
		MachineCount: 3, TaskCount: 1, TaskProc: 50, TaskComm: 80,
		Power: 2, CoreCount: 2, Bandwidth: 5, Latency: 1,
	})
	require.NoError(t, err)

	route, err := b.Table().Get(0, 6)
	require.NoError(t, err)
	require.Equal(t, routing.Route{1, 3, 5}, route, "route holds link sids only; machines 2 and 4 relay by position, not by appearing in the route")
}

func TestStarTopologyRoutesThroughSwitch(t *testing.T) {
	b, err := StarTopology(TopologyParams{
		MachineCount: 3, TaskCount: 1, TaskProc: 50, TaskComm: 80,
		Power: 2, CoreCount: 2, Bandwidth: 5, Latency: 1,
	})
	require.NoError(t, err)

	route, err := b.Table().Get(0, 6)
	require.NoError(t, err)
	require.Equal(t, routing.Route{1, 5}, route, "trunk and leg link only; the switch's own sid never appears in its own route")
}

func TestRingTopologyShortcutsSecondHalf(t *testing.T) {
	b, err := RingTopology(TopologyParams{
		MachineCount: 5, TaskCount: 1, TaskProc: 50, TaskComm: 80,
		Power: 2, CoreCount: 2, Bandwidth: 5, Latency: 1,
	})
	require.NoError(t, err)

	route, err := b.Table().Get(0, 8)
	require.NoError(t, err)
	require.Equal(t, routing.Route{11, 9}, route, "short way around through the closing link and one relay link, no machine sid")
}

func TestLoadTopologyFromYAML(t *testing.T) {
	b, err := LoadTopology("testdata/s1.yaml", sim.Config{Mode: sim.Sequential}, nil)
	require.NoError(t, err)

	rt, err := b.Build()
	require.NoError(t, err)

	var finalOut bytes.Buffer
	require.NoError(t, rt.Run(&finalOut))
}
