// Package trace collects optimistic-engine decision records: rollbacks,
// anti-message emissions, and GVT sweeps. It's a debugging aid, not part
// of the committed-output contract (spec §5: "Observability during
// speculation is irrelevant").
package trace

import "github.com/distsim/distsim/sim"

// Level controls the verbosity of tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelRollback records straggler/rollback/anti-message events.
	LevelRollback Level = "rollback"
	// LevelGVT additionally records every GVT sweep.
	LevelGVT Level = "gvt"
)

var validLevels = map[Level]bool{
	LevelNone:     true,
	LevelRollback: true,
	LevelGVT:      true,
	"":            true, // empty defaults to none
}

// IsValidLevel returns true if level is a recognized trace level string.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// RollbackRecord describes one straggler-triggered rollback.
type RollbackRecord struct {
	LP            sim.Sid
	StragglerTime float64
	RestoredFrom  float64
	AntiMessages  int
}

// GVTRecord describes one GVT sweep.
type GVTRecord struct {
	Value           float64
	FossilCollected int
}

// Trace accumulates decision records during an optimistic run.
type Trace struct {
	Level     Level
	Rollbacks []RollbackRecord
	Sweeps    []GVTRecord
}

// New creates a Trace at the given level.
func New(level Level) *Trace {
	return &Trace{Level: level}
}

// RecordRollback appends a rollback record, if the configured level
// tracks rollbacks.
func (t *Trace) RecordRollback(r RollbackRecord) {
	if t == nil || t.Level == LevelNone {
		return
	}
	t.Rollbacks = append(t.Rollbacks, r)
}

// RecordGVT appends a GVT sweep record, if the configured level tracks
// GVT sweeps.
func (t *Trace) RecordGVT(r GVTRecord) {
	if t == nil || t.Level != LevelGVT {
		return
	}
	t.Sweeps = append(t.Sweeps, r)
}
