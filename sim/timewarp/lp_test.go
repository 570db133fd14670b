package timewarp

import (
	"math/rand"
	"testing"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/trace"
	"github.com/stretchr/testify/require"
)

// counterState is a minimal sim.LPState for exercising checkpoint/rollback
// mechanics in isolation from any real LP handler.
type counterState struct {
	n int
}

func (c *counterState) Clone() sim.LPState {
	cp := *c
	return &cp
}

// driveOne simulates exactly what worker.dispatch does for one message,
// without the engine/mailbox/goroutine machinery: advance lvt, mutate
// state, record an output entry, checkpoint.
func driveOne(lp *lpRuntime, ts float64, delta int, sends ...message) {
	lp.lvt = ts
	lp.state.(*counterState).n += delta
	for _, m := range sends {
		lp.output = append(lp.output, outputRecord{causeTimestamp: ts, msg: m})
	}
	lp.processed = append(lp.processed, message{sender: lp.sid, receiver: lp.sid, timestamp: ts, seq: uint64(len(lp.processed))})
	lp.checkpointNow(func() uint64 { return 0 }, 1)
}

func TestRollbackRestoresState(t *testing.T) {
	lp := newLPRuntime(0, &counterState{}, rand.New(rand.NewSource(1)))

	driveOne(lp, 1.0, 1)
	driveOne(lp, 2.0, 10)
	driveOne(lp, 3.0, 100)
	require.Equal(t, 111, lp.state.(*counterState).n)

	tr := trace.New(trace.LevelRollback)
	lp.rollbackTo(2.0, func(uint64) {}, func(message) {}, tr)

	// rollbackTo(2.0) restores to strictly before 2.0 (the last checkpoint
	// with timestamp < 2.0, i.e. the one taken at 1.0), since the event at
	// 2.0 is itself among what must be undone when a rollback target of
	// exactly 2.0 is requested (whether that's a straggler arriving at 2.0
	// or an anti-message cancelling the delivery that happened at 2.0).
	require.Equal(t, 1, lp.state.(*counterState).n)
	require.Equal(t, 1.0, lp.lvt)
	require.Len(t, tr.Rollbacks, 1)
	require.Equal(t, 2.0, tr.Rollbacks[0].StragglerTime)
}

func TestRollbackEmitsAntiMessagesForLaterSends(t *testing.T) {
	lp := newLPRuntime(0, &counterState{}, rand.New(rand.NewSource(1)))

	driveOne(lp, 1.0, 1, message{sender: 0, receiver: 5, timestamp: 1.0, seq: 0})
	driveOne(lp, 2.0, 1, message{sender: 0, receiver: 5, timestamp: 2.0, seq: 1})
	driveOne(lp, 3.0, 1, message{sender: 0, receiver: 5, timestamp: 3.0, seq: 2})

	var antis []message
	tr := trace.New(trace.LevelRollback)
	lp.rollbackTo(2.0, func(uint64) {}, func(m message) { antis = append(antis, m) }, tr)

	// The event at 2.0 itself is undone (>= ts), so both its own send and
	// the one at 3.0 get anti-messaged; only the 1.0 send survives.
	require.Len(t, antis, 2)
	for _, m := range antis {
		require.True(t, m.negative)
	}
	require.Len(t, lp.output, 1)
	require.Equal(t, uint64(0), lp.output[0].msg.seq)
}

func TestRollbackReinsertsUndoneEvents(t *testing.T) {
	lp := newLPRuntime(0, &counterState{}, rand.New(rand.NewSource(1)))

	driveOne(lp, 1.0, 1)
	driveOne(lp, 2.0, 1)
	driveOne(lp, 3.0, 1)
	require.Len(t, lp.processed, 3)

	tr := trace.New(trace.LevelNone)
	lp.rollbackTo(1.5, func(uint64) {}, func(message) {}, tr)

	require.Len(t, lp.processed, 1, "the event at 1.0 survives; 2.0 and 3.0 are undone")
	require.False(t, lp.mailbox.empty(), "undone events are reinserted into the mailbox for redelivery")
}

func TestFossilCollectDropsOldCheckpointsAndOutput(t *testing.T) {
	lp := newLPRuntime(0, &counterState{}, rand.New(rand.NewSource(1)))

	driveOne(lp, 1.0, 1, message{sender: 0, receiver: 5, timestamp: 1.0, seq: 0})
	driveOne(lp, 2.0, 1, message{sender: 0, receiver: 5, timestamp: 2.0, seq: 1})
	driveOne(lp, 3.0, 1, message{sender: 0, receiver: 5, timestamp: 3.0, seq: 2})
	require.Len(t, lp.checkpoints, 3) // one per driveOne call, interval 1

	lp.fossilCollect(2.5)

	require.Len(t, lp.output, 1, "only the 3.0 send survives a GVT sweep of 2.5")
	require.Equal(t, []float64{2.0, 3.0}, checkpointTimestamps(lp), "everything before the 2.0 floor is fossil-collected")
}

func checkpointTimestamps(lp *lpRuntime) []float64 {
	out := make([]float64, len(lp.checkpoints))
	for i, c := range lp.checkpoints {
		out[i] = c.timestamp
	}
	return out
}
