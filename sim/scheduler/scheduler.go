// Package scheduler implements the slave-assignment policies a master LP
// consults when dispatching newly-generated or newly-completed tasks.
package scheduler

import (
	"fmt"
	"math/rand"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/workload"
)

// ErrNoResources is returned by Schedule when no slave has been
// registered with AddResource.
var ErrNoResources = fmt.Errorf("scheduler: no resources registered")

// Dispatch is called by a Scheduler's OnInit/OnCompletedTask hooks once a
// slave, task size, and arrival time have been chosen; the caller supplies
// it so the scheduler stays decoupled from task minting and routing.
type Dispatch func(slave sim.Sid, proc, comm, arrivalTime float64)

// Scheduler is the polymorphic slave-assignment policy (spec §4.6).
// Cursor/queue state lives on the concrete implementation and is part of
// the owning master's LPState, so it is checkpointed and rolled back along
// with everything else.
type Scheduler interface {
	AddResource(slave sim.Sid)
	Schedule() (sim.Sid, error)
	// OnInit seeds the initial wave of tasks: for each registered slave,
	// while w has remaining capacity, draw a size, advance w's arrival
	// clock from now, and dispatch. Mirrors round_robin.cpp's onInit,
	// which threads a local arrivalTime through setTaskArrivalTime
	// across the loop so open-loop workloads advance once per task.
	OnInit(rng *rand.Rand, w workload.Workload, now float64, dispatch Dispatch)
	// OnCompletedTask is called when the owning master observes a task
	// of its own return home; if w has remaining capacity it draws a
	// size, advances w's arrival clock from now, and dispatches exactly
	// one more.
	OnCompletedTask(rng *rand.Rand, w workload.Workload, now float64, dispatch Dispatch)
	// Clone returns an independent copy for LP-state checkpointing.
	Clone() Scheduler
}

// RoundRobin cycles through registered slaves in registration order.
type RoundRobin struct {
	resources []sim.Sid
	cursor    int
}

// NewRoundRobin returns an empty RoundRobin scheduler.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (rr *RoundRobin) AddResource(slave sim.Sid) {
	rr.resources = append(rr.resources, slave)
}

func (rr *RoundRobin) Schedule() (sim.Sid, error) {
	if len(rr.resources) == 0 {
		return 0, ErrNoResources
	}
	slave := rr.resources[rr.cursor%len(rr.resources)]
	rr.cursor++
	return slave, nil
}

func (rr *RoundRobin) OnInit(rng *rand.Rand, w workload.Workload, now float64, dispatch Dispatch) {
	arrival := now
	for range rr.resources {
		if !w.Remaining() {
			return
		}
		slave, err := rr.Schedule()
		if err != nil {
			return
		}
		proc, comm := w.Next(rng)
		arrival = w.SetArrivalTime(rng, arrival)
		dispatch(slave, proc, comm, arrival)
	}
}

func (rr *RoundRobin) OnCompletedTask(rng *rand.Rand, w workload.Workload, now float64, dispatch Dispatch) {
	if !w.Remaining() {
		return
	}
	slave, err := rr.Schedule()
	if err != nil {
		return
	}
	proc, comm := w.Next(rng)
	arrival := w.SetArrivalTime(rng, now)
	dispatch(slave, proc, comm, arrival)
}

// Clone returns an independent copy for LP-state checkpointing.
func (rr *RoundRobin) Clone() Scheduler {
	cp := &RoundRobin{cursor: rr.cursor}
	cp.resources = append(cp.resources, rr.resources...)
	return cp
}
