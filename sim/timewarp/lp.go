package timewarp

import (
	"math"
	"math/rand"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/trace"
)

const posInf = math.MaxFloat64

// outputRecord is one entry in an LP's output log: a sent message plus
// the timestamp of the event that caused it to be sent (spec §4.1's
// "output queue of copies of events it sent", used to emit anti-messages
// "for every output-queue entry with send time > t_s" on rollback — "send
// time" here means when the sender decided to send it, ctx.Now at the
// time, not the message's own, possibly-future, delivery timestamp).
type outputRecord struct {
	causeTimestamp float64
	msg            message
}

// checkpoint is one saved snapshot in an LP's state stack (spec §4.1's
// "state stack of periodic snapshots").
type checkpoint struct {
	afterIndex int // number of entries of processed this snapshot reflects
	timestamp  float64
	state      sim.LPState
	rngDraws   uint64
}

// lpRuntime is the Time-Warp-local bookkeeping for one LP: its live
// state, local virtual time, mailbox, and everything needed to roll back
// to any point not yet committed by GVT.
//
// Every field below is mutated only by the one worker goroutine that owns
// this LP (per spec §5's "each LP is logically single-threaded"), with
// the sole exception of mailbox, which has its own internal lock because
// other workers' threads push into it directly.
type lpRuntime struct {
	sid   sim.Sid
	state sim.LPState
	lvt   float64

	mailbox *mailbox

	processed []message
	output    []outputRecord
	sinceCkpt uint32

	checkpoints []checkpoint

	rng        *rand.Rand
	rngHandle  sim.Sid // the sid to pass to PartitionedRNG.Checkpoint/Restore
	nextSeq    map[sim.Sid]uint64

	fini sim.FiniFunc
}

func newLPRuntime(sid sim.Sid, state sim.LPState, rng *rand.Rand) *lpRuntime {
	return &lpRuntime{
		sid:     sid,
		state:   state,
		lvt:     0,
		mailbox: newMailbox(),
		rng:     rng,
		nextSeq: make(map[sim.Sid]uint64),
	}
}

// nextSeqFor returns the next monotone sequence number this LP will use
// when sending to receiver, per spec §4.1's "a monotone per-(sender,
// receiver) sequence number... is preferred" for anti-message matching.
// Owner-thread only — nothing but this LP's own dispatch ever sends on
// its behalf.
func (lp *lpRuntime) nextSeqFor(receiver sim.Sid) uint64 {
	seq := lp.nextSeq[receiver]
	lp.nextSeq[receiver]++
	return seq
}

// checkpointNow snapshots state if the configured interval has elapsed.
// ckptInterval == 0 means every event. Always takes the very first
// checkpoint (index 0) unconditionally, so rollback always has a floor to
// restore to.
func (lp *lpRuntime) checkpointNow(rngDraws func() uint64, ckptInterval uint32) {
	lp.sinceCkpt++
	if len(lp.checkpoints) > 0 && ckptInterval > 0 && lp.sinceCkpt < ckptInterval {
		return
	}
	lp.sinceCkpt = 0
	lp.checkpoints = append(lp.checkpoints, checkpoint{
		afterIndex: len(lp.processed),
		timestamp:  lp.lvt,
		state:      lp.state.Clone(),
		rngDraws:   rngDraws(),
	})
}

// findFloor returns the index of the last checkpoint with timestamp
// strictly less than t_s, or 0 (the always-present initial checkpoint) if
// none qualifies. Strict inequality matters: it guarantees the checkpoint
// chosen as the restore floor was always taken before the event at t_s
// was ever dispatched, so that event (and everything checkpointed after
// it) is reliably in the "undone" tail regardless of how fine-grained
// checkpointing is configured — a non-strict "<=" could land exactly on
// a checkpoint taken immediately after dispatching the very event being
// rolled back past, which would wrongly treat it as already committed.
func (lp *lpRuntime) findFloor(ts float64) int {
	idx := 0
	for i, c := range lp.checkpoints {
		if c.timestamp < ts {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// rollbackTo restores lp to its state as of the last checkpoint strictly
// before ts, replays straggler bookkeeping per spec §4.1: discards
// state-stack/output-queue entries beyond the restore point, emits
// anti-messages for every output-log entry caused at or after ts, and
// reinserts the now-undone processed events for redelivery. The event
// that was dispatched at ts itself is always among the undone: ts is
// either a straggler arriving earlier than lvt (so ts's own slot hasn't
// been processed yet — nothing to undo there) or the timestamp of a
// delivered event being cancelled by an anti-message (in which case it
// must be undone too), and the >= below handles the latter correctly
// since that event's own output was caused at exactly ts.
//
// restoreRNG rewinds this LP's PRNG to the draw count the checkpoint
// recorded; sendAnti delivers one anti-message to its target mailbox.
func (lp *lpRuntime) rollbackTo(ts float64, restoreRNG func(draws uint64), sendAnti func(message), tr *trace.Trace) {
	floor := lp.findFloor(ts)
	c := lp.checkpoints[floor]

	restoredFrom := lp.lvt
	lp.state = c.state.Clone()
	lp.lvt = c.timestamp
	restoreRNG(c.rngDraws)

	undone := append([]message(nil), lp.processed[c.afterIndex:]...)
	lp.processed = lp.processed[:c.afterIndex]
	lp.checkpoints = lp.checkpoints[:floor+1]
	lp.sinceCkpt = 0

	antiCount := 0
	kept := lp.output[:0:0]
	for _, rec := range lp.output {
		if rec.causeTimestamp >= ts {
			sendAnti(rec.msg.antiOf())
			antiCount++
			continue
		}
		kept = append(kept, rec)
	}
	lp.output = kept

	for _, m := range undone {
		lp.mailbox.reinsert(m)
	}

	tr.RecordRollback(trace.RollbackRecord{
		LP:            lp.sid,
		StragglerTime: ts,
		RestoredFrom:  restoredFrom,
		AntiMessages:  antiCount,
	})
}

// fossilCollect discards checkpoint and output-log history that can never
// be rolled back to again, now that gvt has committed everything before
// it (spec §4.1's "State-stack entries with time < GVT and output-queue
// entries with time < GVT can be fossil-collected").
func (lp *lpRuntime) fossilCollect(gvt float64) {
	keepFrom := 0
	for i, c := range lp.checkpoints {
		if c.timestamp < gvt {
			keepFrom = i
		} else {
			break
		}
	}
	if keepFrom > 0 {
		lp.checkpoints = append([]checkpoint(nil), lp.checkpoints[keepFrom:]...)
	}

	kept := lp.output[:0:0]
	for _, rec := range lp.output {
		if rec.causeTimestamp >= gvt {
			kept = append(kept, rec)
		}
	}
	lp.output = kept
}
