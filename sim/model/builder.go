// Package model provides declarative construction of a sim.Runtime: add
// masters, machines, links and switches by sid, register the routes
// between them, then Build() a ready-to-run Runtime. Grounded on the
// teacher's sim/cluster.DeploymentConfig + NewClusterSimulator shape — a
// plain config struct assembled incrementally, then turned into a live
// simulator by one constructor call — adapted here to an incremental
// builder since, unlike the teacher's fixed N-instance cluster, a model's
// topology is an arbitrary graph assembled hop by hop.
package model

import (
	"fmt"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/service"
	"github.com/distsim/distsim/sim/workload"
)

// Builder accumulates LP registrations and routes before producing a
// Runtime. Its own state is plain Go slices/maps — no sim.Runtime exists
// until Build is called.
type Builder struct {
	config sim.Config
	table  *routing.Table

	registrations []registration
	declaredSids  map[sim.Sid]bool
}

type registration struct {
	sid  sim.Sid
	init sim.InitFunc
	fini sim.FiniFunc
}

// NewBuilder returns an empty Builder using config for the eventual
// Runtime (Mode, ReturnOffsetMode, PRNGSeed, and so on).
func NewBuilder(config sim.Config) *Builder {
	return &Builder{
		config:       config,
		table:        routing.NewTable(),
		declaredSids: make(map[sim.Sid]bool),
	}
}

// Table exposes the Builder's routing table so callers (topology
// generators, YAML loaders) can populate it directly with Add/LoadReader
// before Build.
func (b *Builder) Table() *routing.Table { return b.table }

func (b *Builder) register(sid sim.Sid, init sim.InitFunc, fini sim.FiniFunc) error {
	if b.declaredSids[sid] {
		return fmt.Errorf("model: sid %d already registered", sid)
	}
	b.declaredSids[sid] = true
	b.registrations = append(b.registrations, registration{sid: sid, init: init, fini: fini})
	return nil
}

// AddMaster registers a master LP at sid, owning slaves under sched, and
// optionally driving its own workload (wl may be nil for a master whose
// slaves are only ever fed externally — not used by any current scenario
// but kept since NewMasterInit already tolerates it).
func (b *Builder) AddMaster(sid sim.Sid, slaves []sim.Sid, sched scheduler.Scheduler, wl workload.Workload, fini sim.FiniFunc) error {
	return b.register(sid, service.NewMasterInit(slaves, sched, wl), fini)
}

// AddMachine registers a machine LP at sid with coreCount identical
// cores, each rated at power/coreCount (spec §8's S1 worked example
// only reconciles if the per-core rate is the raw power figure divided
// by core count, not the raw figure itself — see DESIGN.md's Open
// Questions).
func (b *Builder) AddMachine(sid sim.Sid, power, loadFactor float64, coreCount int, fini sim.FiniFunc) error {
	if coreCount <= 0 {
		return fmt.Errorf("model: machine %d needs at least one core", sid)
	}
	return b.register(sid, service.NewMachineInit(power/float64(coreCount), loadFactor, coreCount), fini)
}

// AddLink registers a point-to-point link LP at sid between from and to.
func (b *Builder) AddLink(sid, from, to sim.Sid, bandwidth, loadFactor, latency float64, fini sim.FiniFunc) error {
	return b.register(sid, service.NewLinkInit(from, to, bandwidth, loadFactor, latency), fini)
}

// AddSwitch registers a switch LP at sid with the given ports.
func (b *Builder) AddSwitch(sid sim.Sid, ports []sim.Sid, bandwidth, loadFactor, latency float64, fini sim.FiniFunc) error {
	return b.register(sid, service.NewSwitchInit(ports, bandwidth, loadFactor, latency), fini)
}

// AddRoute registers the hop list between src and dst: intermediate
// link or switch sids only, in traversal order, never including src,
// dst, or any machine sid a packet happens to pass through on its way
// (routing.Forward indexes into this array positionally by the
// descriptor's offset, not by searching for anyone's identity in it —
// see sim/routing.Forward's doc comment).
func (b *Builder) AddRoute(src, dst sim.Sid, route routing.Route) {
	b.table.Add(src, dst, route)
}

// Build constructs the Runtime: registers every declared LP against a
// fresh sim.Runtime wired to service.NewDispatcher(b.Table(), ...).
func (b *Builder) Build() (*sim.Runtime, error) {
	if len(b.registrations) == 0 {
		return nil, fmt.Errorf("model: no LPs registered")
	}
	dispatcher := service.NewDispatcher(b.table, b.config.ReturnOffsetMode)
	rt := sim.NewRuntime(b.config, dispatcher)
	for _, r := range b.registrations {
		if err := rt.Register(r.sid, r.init, r.fini); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	}
	return rt, nil
}
