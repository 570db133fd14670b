// Package task defines the Task record carried by every arrival event and
// the id-minting helper used to construct it.
package task

import (
	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/routing"
)

// CompletionState distinguishes a task still making its way to a slave from
// one that has finished processing and is returning to its origin master.
type CompletionState int

const (
	JustGenerated CompletionState = iota
	Processed
)

func (c CompletionState) String() string {
	switch c {
	case JustGenerated:
		return "JustGenerated"
	case Processed:
		return "Processed"
	default:
		return "CompletionState(?)"
	}
}

// Task is an immutable value (spec §3): copied into mailboxes along with
// its RouteDescriptor, never shared by pointer, so an anti-message can
// fingerprint and cancel a specific instance without aliasing the one a
// receiver already holds.
type Task struct {
	Tid             uint64
	Origin          sim.Sid
	ProcSize        float64
	CommSize        float64
	CompletionState CompletionState
}

// NewID mints a task id by Szudzik-pairing a per-master monotone counter
// with the master's sid, guaranteeing global uniqueness across masters
// without coordination (spec §3).
func NewID(workloadCounter uint64, masterID sim.Sid) uint64 {
	return routing.Szudzik(workloadCounter, uint64(masterID))
}

// WithCompletionState returns a copy of t with CompletionState replaced;
// all other fields, including Tid and Origin, are preserved.
func (t Task) WithCompletionState(s CompletionState) Task {
	t.CompletionState = s
	return t
}
