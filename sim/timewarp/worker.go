package timewarp

import (
	"sync/atomic"

	"github.com/distsim/distsim/sim"
)

// worker drives one or more LPs: on each step it advances the owned LP
// whose mailbox head has the earliest timestamp by one message,
// interpret it (dispatch a positive, roll back on a negative), and loop
// until told to stop. Grounded on etalazz-vsa's ratelimiter Worker.Start
// goroutine shape — a select over a stop channel inside a tight loop —
// adapted from a ticker-driven poll to a busy poll, since Time-Warp
// workers must react to new mailbox arrivals as soon as they land, not on
// a fixed period.
type worker struct {
	engine *Engine
	owned  []sim.Sid
	id     int
}

// loop recovers its own panics rather than relying on Engine.run's defer:
// that defer runs on the goroutine that spawned the workers, not on each
// worker's own goroutine, so a handler panic (the mechanism sim/service
// uses to signal fatal errors, same as runSequential) would otherwise
// escape uncaught and crash the process instead of coming back as an
// error from rt.Run.
func (w *worker) loop() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
				return
			}
			panic(r)
		}
	}()

	if w.engine.coreBinding {
		bindWorkerToCore(w.id)
	}

	idleSpins := 0
	for {
		select {
		case <-w.engine.stopCh:
			return nil
		default:
		}

		sid, did, err := w.stepOnce()
		if err != nil {
			return err
		}
		_ = sid
		if !did {
			idleSpins++
			if idleSpins > 1<<10 {
				idleSpins = 0
				select {
				case <-w.engine.stopCh:
					return nil
				default:
				}
			}
			continue
		}
		idleSpins = 0
	}
}

// stepOnce looks at the head of every owned LP's mailbox and advances the
// one with the globally-earliest timestamp by exactly one message. It
// reports whether any LP had work.
func (w *worker) stepOnce() (sim.Sid, bool, error) {
	var best sim.Sid
	bestTs := posInf
	found := false
	for _, sid := range w.owned {
		lp := w.engine.lps[sid]
		ts := lp.mailbox.minTimestamp()
		if ts < bestTs {
			bestTs = ts
			best = sid
			found = true
		}
	}
	if !found {
		return 0, false, nil
	}

	atomic.AddInt32(&w.engine.busy, 1)
	defer atomic.AddInt32(&w.engine.busy, -1)

	lp := w.engine.lps[best]
	res := lp.mailbox.pop()
	if !res.ok {
		return best, false, nil
	}
	w.interpret(lp, res.msg)
	return best, true, nil
}

// interpret handles one popped message: a positive dispatches (rolling
// back first if it arrives earlier than lvt — a straggler), a negative
// either annihilates a not-yet-delivered duplicate (shouldn't reach here;
// mailbox.push already resolves that case) or rolls back a delivery that
// already committed.
func (w *worker) interpret(lp *lpRuntime, m message) {
	if m.negative {
		w.handleAnti(lp, m)
		return
	}
	if m.timestamp < lp.lvt {
		lp.rollbackTo(m.timestamp, w.restoreRNG(lp.sid), w.sendAnti, w.engine.trace)
	}
	w.dispatch(lp, m)
}

func (w *worker) handleAnti(lp *lpRuntime, m message) {
	k := m.key()
	if !lp.mailbox.isDelivered(k) {
		// Already resolved by mailbox.push's pending-map annihilation path;
		// nothing more to do (this anti-message reached the heap only
		// because the positive had been delivered, or raced in after —
		// isDelivered is authoritative here since only the owner calls it).
		return
	}
	lp.mailbox.clearDelivered(k)
	w.rollbackToMessageTime(lp, m)
}

// rollbackToMessageTime rolls lp back to just before the delivered event
// that the incoming anti-message is cancelling. It finds that event's
// timestamp from the processed log by key rather than trusting m.timestamp
// blindly (defensive against future changes where anti-messages might not
// carry the original delivery timestamp verbatim).
func (w *worker) rollbackToMessageTime(lp *lpRuntime, m message) {
	ts := m.timestamp
	for _, p := range lp.processed {
		if p.key() == m.key() {
			ts = p.timestamp
			break
		}
	}
	// rollbackTo restores to the last checkpoint with timestamp strictly
	// less than ts and treats every processed entry from that checkpoint
	// onward as undone, including the one at ts itself, so the cancelled
	// event's own dispatch is unwound along with everything causally
	// downstream of it.
	lp.rollbackTo(ts, w.restoreRNG(lp.sid), w.sendAnti, w.engine.trace)
}

func (w *worker) dispatch(lp *lpRuntime, m message) {
	lp.lvt = m.timestamp
	ctx := sim.NewContext(m.timestamp, lp.sid, m.kind, m.payload, lp.state, engineSink{w.engine}, lp.rng)
	w.engine.rt.Dispatcher()(ctx)

	lp.processed = append(lp.processed, m)
	lp.mailbox.markDelivered(m.key())
	lp.checkpointNow(func() uint64 { return w.engine.rt.RNG().Checkpoint(lp.sid) }, w.engine.ckptInterval)
}

func (w *worker) restoreRNG(sid sim.Sid) func(uint64) {
	return func(draws uint64) { w.engine.rt.RNG().Restore(sid, draws) }
}

func (w *worker) sendAnti(m message) {
	receiverLP, ok := w.engine.lps[m.receiver]
	if !ok {
		return
	}
	receiverLP.mailbox.push(m)
}

// engineSink adapts Engine.schedule to the sim.EventSink interface that
// sim.Context expects; every dispatch shares one of these per worker call
// since schedule is self-contained (it re-resolves sender/receiver from
// e.lps on each call rather than closing over LP pointers).
type engineSink struct{ e *Engine }

func (s engineSink) Schedule(sender, receiver sim.Sid, timestamp float64, kind sim.EventKind, payload sim.Payload) {
	s.e.schedule(sender, receiver, timestamp, kind, payload)
}
