package model

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
	"github.com/distsim/distsim/sim/scheduler"
	"github.com/distsim/distsim/sim/workload"
)

// TopologySpec is the declarative YAML document consumed by LoadTopology:
// one master, a flat list of machines/links/switches, and the route table
// between the master and every machine. Decoded with KnownFields(true),
// matching the teacher's LoadWorkloadSpec strictness (sim/workload/spec.go).
type TopologySpec struct {
	Master  MasterSpec    `yaml:"master"`
	Machine []MachineSpec `yaml:"machines"`
	Link    []LinkSpec    `yaml:"links"`
	Switch  []SwitchSpec  `yaml:"switches,omitempty"`
	Route   []RouteSpec   `yaml:"routes"`
}

// MasterSpec configures the single master LP (sid is always implied 0 by
// spec §4.5's ownership note, but is spelled out here for readability).
type MasterSpec struct {
	Sid      sim.Sid  `yaml:"sid"`
	Slaves   []sim.Sid `yaml:"slaves"`
	Workload WorkloadSpec `yaml:"workload"`
}

// WorkloadSpec picks one of three workload.Workload variants by kind.
type WorkloadSpec struct {
	Kind  string  `yaml:"kind"` // constant | uniform | gaussian
	Count int     `yaml:"count"`
	Proc  float64 `yaml:"proc"`
	Comm  float64 `yaml:"comm"`
	// Uniform/Gaussian-only bounds; ignored by "constant".
	ProcSpread float64 `yaml:"proc_spread,omitempty"`
	CommSpread float64 `yaml:"comm_spread,omitempty"`
}

func (w WorkloadSpec) build() (workload.Workload, error) {
	switch w.Kind {
	case "", "constant":
		return workload.NewConstant(w.Proc, w.Comm, w.Count), nil
	case "uniform":
		return workload.NewUniformRandom(w.Proc-w.ProcSpread, w.Proc+w.ProcSpread, w.Comm-w.CommSpread, w.Comm+w.CommSpread, w.Count), nil
	case "gaussian":
		return workload.NewGaussianSizes(w.Proc, w.ProcSpread, w.Comm, w.CommSpread, 0, w.Count), nil
	default:
		return nil, fmt.Errorf("model: unknown workload kind %q", w.Kind)
	}
}

// MachineSpec configures one machine LP. Power is the raw per-machine
// rating; Builder.AddMachine divides it by Cores.
type MachineSpec struct {
	Sid        sim.Sid `yaml:"sid"`
	Power      float64 `yaml:"power"`
	LoadFactor float64 `yaml:"load_factor"`
	Cores      int     `yaml:"cores"`
}

// LinkSpec configures one point-to-point link LP.
type LinkSpec struct {
	Sid        sim.Sid `yaml:"sid"`
	From       sim.Sid `yaml:"from"`
	To         sim.Sid `yaml:"to"`
	Bandwidth  float64 `yaml:"bandwidth"`
	LoadFactor float64 `yaml:"load_factor"`
	Latency    float64 `yaml:"latency"`
}

// SwitchSpec configures one switch LP.
type SwitchSpec struct {
	Sid        sim.Sid   `yaml:"sid"`
	Ports      []sim.Sid `yaml:"ports"`
	Bandwidth  float64   `yaml:"bandwidth"`
	LoadFactor float64   `yaml:"load_factor"`
	Latency    float64   `yaml:"latency"`
}

// RouteSpec is one row of the route table: the hop list strictly between
// Src and Dst, in the on-disk route-file's whitespace-delimited order.
type RouteSpec struct {
	Src sim.Sid   `yaml:"src"`
	Dst sim.Sid   `yaml:"dst"`
	Hop []sim.Sid `yaml:"hops"`
}

// LoadTopology reads and decodes a TopologySpec from path, and builds a
// Builder from it. config carries the engine-wide knobs (Mode,
// ReturnOffsetMode, PRNGSeed) that aren't part of the topology file.
func LoadTopology(path string, config sim.Config, fini sim.FiniFunc) (*Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: reading topology: %w", err)
	}

	var spec TopologySpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("model: parsing topology: %w", err)
	}

	return BuildFromSpec(spec, config, fini)
}

// BuildFromSpec turns an already-decoded TopologySpec into a Builder.
func BuildFromSpec(spec TopologySpec, config sim.Config, fini sim.FiniFunc) (*Builder, error) {
	b := NewBuilder(config)

	wl, err := spec.Master.Workload.build()
	if err != nil {
		return nil, err
	}
	if err := b.AddMaster(spec.Master.Sid, spec.Master.Slaves, scheduler.NewRoundRobin(), wl, fini); err != nil {
		return nil, err
	}
	for _, m := range spec.Machine {
		if err := b.AddMachine(m.Sid, m.Power, m.LoadFactor, m.Cores, fini); err != nil {
			return nil, err
		}
	}
	for _, l := range spec.Link {
		if err := b.AddLink(l.Sid, l.From, l.To, l.Bandwidth, l.LoadFactor, l.Latency, fini); err != nil {
			return nil, err
		}
	}
	for _, s := range spec.Switch {
		if err := b.AddSwitch(s.Sid, s.Ports, s.Bandwidth, s.LoadFactor, s.Latency, fini); err != nil {
			return nil, err
		}
	}
	for _, r := range spec.Route {
		b.AddRoute(r.Src, r.Dst, routing.Route(r.Hop))
	}
	return b, nil
}
