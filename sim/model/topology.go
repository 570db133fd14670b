package model

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/workload"
)

// TopologyParams sizes and configures a generated topology. Grounded on
// the sid/parameter choices in the original source's own topology test
// harnesses (original_source/test/topology_{linear,ring,star_switched}):
// sid 0 is always the master, links get odd sids, machines/switches get
// even sids.
type TopologyParams struct {
	MachineCount int
	TaskCount    int

	TaskProc, TaskComm float64

	Power, LoadFactor float64
	CoreCount         int

	Bandwidth, LinkLoadFactor, Latency float64

	// Fini, if non-nil, is attached as every generated LP's finalizer —
	// pass metrics.Reporter.Capture to collect a report across the whole
	// topology.
	Fini sim.FiniFunc

	// Config is passed through to NewBuilder verbatim. The zero value
	// (Mode: Sequential) is a valid default, so existing callers that
	// never set this field keep their original behavior.
	Config sim.Config
}

func (p TopologyParams) sched() scheduler.Scheduler { return scheduler.NewRoundRobin() }
func (p TopologyParams) wl() workload.Workload {
	return workload.NewConstant(p.TaskProc, p.TaskComm, p.TaskCount)
}

// LinearTopology builds master(0) - link(1) - machine(2) - link(3) -
// machine(4) - ... - machine(2N): each machine also relays traffic
// addressed to later machines down the chain. Routes hold the link sids
// a task crosses and nothing else, matching createLinearTopologyRouting's
// actual output (original_source/test/topology_linear/main.cpp emits
// only odd link ids per route line, e.g. "1 3 5" for the third machine,
// never the machines between them); the relaying machines learn the
// next hop from their own position in that same link list via
// routing.Forward, not from seeing themselves listed in it.
func LinearTopology(p TopologyParams) (*Builder, error) {
	b := NewBuilder(p.Config)

	machineHighest := sim.Sid(p.MachineCount * 2)
	var slaves []sim.Sid
	for m := sim.Sid(2); m <= machineHighest; m += 2 {
		slaves = append(slaves, m)
	}

	if err := b.AddMaster(0, slaves, p.sched(), p.wl(), p.Fini); err != nil {
		return nil, err
	}
	for m := sim.Sid(2); m <= machineHighest; m += 2 {
		if err := b.AddMachine(m, p.Power, p.LoadFactor, p.CoreCount, p.Fini); err != nil {
			return nil, err
		}
	}
	for l := sim.Sid(1); l < machineHighest; l += 2 {
		if err := b.AddLink(l, l-1, l+1, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
			return nil, err
		}
	}

	for m := sim.Sid(2); m <= machineHighest; m += 2 {
		var route routing.Route
		for l := sim.Sid(1); l < m; l += 2 {
			route = append(route, l)
		}
		b.AddRoute(0, m, route)
	}
	return b, nil
}

// RingTopology builds the same master/machines as LinearTopology, but
// closes the chain with one additional link back to the master, and
// routes the second half of machines the "short way" around (via the
// closing link) instead of through the whole first half. Routes are
// link sids only, same as LinearTopology; createRingTopologyRouting
// (original_source/test/topology_ring/main.cpp) builds the first half
// identically to the linear case and the second half by walking link
// ids down from the closing link, never naming an intermediate machine.
func RingTopology(p TopologyParams) (*Builder, error) {
	b := NewBuilder(p.Config)

	machineHighest := sim.Sid(p.MachineCount * 2)
	machineHalf := machineHighest / 2
	if machineHalf%2 == 1 {
		machineHalf++
	}

	var slaves []sim.Sid
	for m := sim.Sid(2); m <= machineHighest; m += 2 {
		slaves = append(slaves, m)
	}
	if err := b.AddMaster(0, slaves, p.sched(), p.wl(), p.Fini); err != nil {
		return nil, err
	}

	for m := sim.Sid(2); m <= machineHighest; m += 2 {
		if err := b.AddMachine(m, p.Power, p.LoadFactor, p.CoreCount, p.Fini); err != nil {
			return nil, err
		}
		linkID := m - 1
		if err := b.AddLink(linkID, linkID-1, linkID+1, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
			return nil, err
		}
	}
	closingLink := machineHighest + 1
	if err := b.AddLink(closingLink, machineHighest, 0, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
		return nil, err
	}

	for m := sim.Sid(2); m <= machineHalf; m += 2 {
		var route routing.Route
		for l := sim.Sid(1); l < m; l += 2 {
			route = append(route, l)
		}
		b.AddRoute(0, m, route)
	}
	for m := machineHalf + 2; m <= machineHighest; m += 2 {
		var route routing.Route
		for l := closingLink; l > m; l -= 2 {
			route = append(route, l)
		}
		b.AddRoute(0, m, route)
	}
	return b, nil
}

// StarTopology builds master(0) - link(1) - switch(2) - legLink(N) -
// machine(N+1) for every machine, fanning every task through one shared
// switch. The route is the trunk and leg link only — createStarTopologyRouting
// (original_source/test/topology_star_switched/main.cpp) emits exactly
// "1 <legLink>" per route line, never the switch's own sid, and the
// switch learns which leg to use from its own position in that list.
func StarTopology(p TopologyParams) (*Builder, error) {
	b := NewBuilder(p.Config)

	const trunkLink = sim.Sid(1)
	const switchSid = sim.Sid(2)

	machineHighest := switchSid + sim.Sid(p.MachineCount)*2
	var slaves []sim.Sid
	ports := []sim.Sid{trunkLink}
	for m := sim.Sid(4); m <= machineHighest; m += 2 {
		slaves = append(slaves, m)
		ports = append(ports, m-1)
	}

	if err := b.AddMaster(0, slaves, p.sched(), p.wl(), p.Fini); err != nil {
		return nil, err
	}
	if err := b.AddLink(trunkLink, 0, switchSid, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
		return nil, err
	}
	if err := b.AddSwitch(switchSid, ports, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
		return nil, err
	}
	for m := sim.Sid(4); m <= machineHighest; m += 2 {
		legLink := m - 1
		if err := b.AddMachine(m, p.Power, p.LoadFactor, p.CoreCount, p.Fini); err != nil {
			return nil, err
		}
		if err := b.AddLink(legLink, switchSid, m, p.Bandwidth, p.LinkLoadFactor, p.Latency, p.Fini); err != nil {
			return nil, err
		}
		b.AddRoute(0, m, routing.Route{trunkLink, legLink})
	}
	return b, nil
}
