// Package service implements the event handlers for the four LP variants
// — master, machine, link, switch — behind a single shared Dispatcher, per
// the tagged-union design in spec §9: one type switch over LPState,
// keeping all LP-variant dispatch in one place instead of modeling it as
// virtual-dispatch inheritance.
package service

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/task"
	"github.com/distsim/distsim/sim/workload"
)

// Arrival is the payload carried by every sim.TaskArrival event: the task
// itself plus the route descriptor that walks it hop-by-hop (spec §3's
// "Event: {task, route_descriptor}").
type Arrival struct {
	Task       task.Task
	Descriptor routing.Descriptor
}

// MasterMetrics is the subset of a master's counters a finalizer reports.
type MasterMetrics struct {
	LastActivityTime float64
	CompletedTasks   uint64
}

// MasterState is the LP state for a master: it owns a slave pool, a
// scheduling policy over that pool, and (optionally) a workload generator
// driving its own task stream.
type MasterState struct {
	Self     sim.Sid
	Slaves   []sim.Sid
	Sched    scheduler.Scheduler
	Workload workload.Workload
	Metrics  MasterMetrics

	workloadCounter uint64
}

func (m *MasterState) Clone() sim.LPState {
	cp := *m
	cp.Slaves = append([]sim.Sid(nil), m.Slaves...)
	if m.Sched != nil {
		cp.Sched = m.Sched.Clone()
	}
	if m.Workload != nil {
		cp.Workload = m.Workload.Clone()
	}
	return &cp
}

// MachineMetrics is the subset of a machine's counters a finalizer reports.
type MachineMetrics struct {
	LastActivityTime float64
	ProcMflops       float64
	ProcTime         float64
	ProcTasks        uint64
	ForwardedPackets uint64
}

// MachineState is the LP state for a machine: a fixed-size pool of cores,
// each tracked by the time it next becomes free.
type MachineState struct {
	Self         sim.Sid
	PowerPerCore float64
	LoadFactor   float64
	CoreFreeTime []float64
	Metrics      MachineMetrics
}

func (m *MachineState) Clone() sim.LPState {
	cp := *m
	cp.CoreFreeTime = append([]float64(nil), m.CoreFreeTime...)
	return &cp
}

// LinkMetrics is the subset of a link's or switch's counters a finalizer
// reports.
type LinkMetrics struct {
	CommMbits float64
	CommTime  float64
	CommTasks uint64
}

// LinkState is the LP state for a point-to-point link between two fixed
// endpoints. A switch reuses this same shape with two or more ports (see
// SwitchState).
type LinkState struct {
	Self          sim.Sid
	From, To      sim.Sid
	Bandwidth     float64
	LoadFactor    float64
	Latency       float64
	AvailableTime float64
	Metrics       LinkMetrics
	LVT           float64
}

func (l *LinkState) Clone() sim.LPState {
	cp := *l
	return &cp
}

// SwitchState is the LP state for a switch: an arbitrary-arity port set
// that forwards strictly by the route descriptor rather than by a fixed
// {from,to} pair.
type SwitchState struct {
	Self          sim.Sid
	Ports         []sim.Sid
	Bandwidth     float64
	LoadFactor    float64
	Latency       float64
	AvailableTime float64
	Metrics       LinkMetrics
	LVT           float64
}

func (s *SwitchState) Clone() sim.LPState {
	cp := *s
	cp.Ports = append([]sim.Sid(nil), s.Ports...)
	return &cp
}
