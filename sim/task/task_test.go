package task

import (
	"testing"

	"github.com/distsim/distsim/sim"
	"github.com/stretchr/testify/require"
)

func TestNewIDUniqueAcrossMasters(t *testing.T) {
	seen := make(map[uint64]struct{})
	for masterID := sim.Sid(0); masterID < 5; masterID++ {
		for counter := uint64(0); counter < 200; counter++ {
			id := NewID(counter, masterID)
			_, dup := seen[id]
			require.False(t, dup, "collision at counter=%d masterID=%d", counter, masterID)
			seen[id] = struct{}{}
		}
	}
}

func TestWithCompletionStatePreservesIdentity(t *testing.T) {
	tk := Task{Tid: 42, Origin: sim.Sid(3), ProcSize: 1.5, CommSize: 2.5, CompletionState: JustGenerated}
	done := tk.WithCompletionState(Processed)

	require.Equal(t, tk.Tid, done.Tid)
	require.Equal(t, tk.Origin, done.Origin)
	require.Equal(t, tk.ProcSize, done.ProcSize)
	require.Equal(t, tk.CommSize, done.CommSize)
	require.Equal(t, Processed, done.CompletionState)
	require.Equal(t, JustGenerated, tk.CompletionState, "original must be unmodified")
}

func TestCompletionStateString(t *testing.T) {
	require.Equal(t, "JustGenerated", JustGenerated.String())
	require.Equal(t, "Processed", Processed.String())
}
