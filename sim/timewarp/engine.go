package timewarp

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/trace"
)

func init() {
	sim.OptimisticEngineFunc = Run
}

// Engine drives the optimistic (Time-Warp) execution of a sim.Runtime:
// one goroutine per worker, LPs statically partitioned across them,
// speculative dispatch with checkpoint/rollback on stragglers, and a
// periodic GVT sweep that commits and fossil-collects. Grounded on the
// background-worker shape of etalazz-vsa's internal/ratelimiter/core.Worker
// (Start spins goroutines off a WaitGroup, Stop closes a channel and
// waits) — adapted here from one worker with two named loops to N
// identical worker loops plus a separate GVT coordinator loop.
type Engine struct {
	rt   *sim.Runtime
	lps  map[sim.Sid]*lpRuntime
	sids []sim.Sid

	ckptInterval uint32
	horizon      float64
	coreBinding  bool
	threads      int

	trace *trace.Trace

	busy      int32 // atomic: number of workers currently inside a dispatch call
	stopCh    chan struct{}
	stopOnce  sync.Once
	workersWg sync.WaitGroup

	gvtMu sync.Mutex
	gvt   float64
}

// Run is the optimistic engine entry point, wired into
// sim.OptimisticEngineFunc by this package's init(). It builds an Engine
// from rt's configuration and registered LPs, runs it to completion, and
// writes the finalizer report to out.
func Run(rt *sim.Runtime, out io.Writer) error {
	e, err := newEngine(rt)
	if err != nil {
		return err
	}
	return e.run(out)
}

func newEngine(rt *sim.Runtime) (*Engine, error) {
	cfg := rt.Config()
	sids := rt.Sids()
	if len(sids) == 0 {
		return nil, sim.NewConfigError("timewarp.Run", fmt.Errorf("no LPs registered"))
	}

	traceLevel := trace.Level(cfg.TraceLevel)
	if !trace.IsValidLevel(cfg.TraceLevel) {
		logrus.Warnf("timewarp: unrecognized trace level %q, defaulting to none", cfg.TraceLevel)
		traceLevel = trace.LevelNone
	}

	e := &Engine{
		rt:           rt,
		lps:          make(map[sim.Sid]*lpRuntime, len(sids)),
		sids:         append([]sim.Sid(nil), sids...),
		ckptInterval: cfg.CkptInterval,
		horizon:      cfg.Horizon(),
		coreBinding:  cfg.CoreBinding,
		threads:      cfg.Threads,
		trace:        trace.New(traceLevel),
		stopCh:       make(chan struct{}),
	}
	sort.Slice(e.sids, func(i, j int) bool { return e.sids[i] < e.sids[j] })

	for _, sid := range e.sids {
		init := rt.Init(sid)
		if init == nil {
			return nil, sim.NewConfigError("timewarp.Run", fmt.Errorf("sid %d has no initializer", sid))
		}
		state := init(sid)
		lp := newLPRuntime(sid, state, rt.RNG().ForLP(sid))
		lp.rngHandle = sid
		lp.fini = rt.Fini(sid)
		e.lps[sid] = lp
	}

	// Seed every LP's mailbox with LP_INIT then TASK_SCHEDULER_INIT at
	// t=0, self-sent, mirroring sim.Runtime.runSequential's bootstrap.
	for _, sid := range e.sids {
		lp := e.lps[sid]
		lp.mailbox.push(message{sender: sid, receiver: sid, timestamp: 0, kind: sim.LPInit, seq: lp.nextSeqFor(sid)})
		lp.mailbox.push(message{sender: sid, receiver: sid, timestamp: 0, kind: sim.TaskSchedulerInit, seq: lp.nextSeqFor(sid)})
		lp.checkpointNow(func() uint64 { return rt.RNG().Checkpoint(sid) }, e.ckptInterval)
	}

	return e, nil
}

// setTraceLevel overrides the decision-trace level set from
// sim.Config.TraceLevel by newEngine; call before run. Tests use this to
// set a level directly without going through Config/string validation.
func (e *Engine) setTraceLevel(level trace.Level) { e.trace = trace.New(level) }

// requestStop closes stopCh exactly once, however many callers race to
// call it — gvtLoop on reaching the horizon or quiescence, or a worker
// goroutine that just recovered a fatal handler panic.
func (e *Engine) requestStop() { e.stopOnce.Do(func() { close(e.stopCh) }) }

func (e *Engine) run(out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
				return
			}
			panic(r)
		}
	}()

	workers := e.threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(e.sids) {
		workers = len(e.sids)
	}
	partitions := partitionSids(e.sids, workers)

	var workerErr atomic.Value // stores error
	e.workersWg.Add(len(partitions))
	for wi, part := range partitions {
		w := &worker{engine: e, owned: part, id: wi}
		go func(w *worker) {
			defer e.workersWg.Done()
			if perr := w.loop(); perr != nil {
				workerErr.CompareAndSwap(nil, perr)
				// A fatal handler error on one LP means the run can't
				// reach a meaningful GVT or quiescence on its own — wake
				// gvtLoop and every other worker immediately.
				e.requestStop()
			}
		}(w)
	}

	e.gvtLoop()
	e.workersWg.Wait()

	e.logTrace()

	if v := workerErr.Load(); v != nil {
		return v.(error)
	}

	e.finalize(out)
	return nil
}

// logTrace reports accumulated decision records at debug level once the
// run is done. A debugging aid only (spec §5: speculative-phase
// observability doesn't affect committed output), so it's logged rather
// than written to out alongside the finalizer report.
func (e *Engine) logTrace() {
	if e.trace.Level == trace.LevelNone {
		return
	}
	logrus.Debugf("timewarp: %d rollback(s), %d GVT sweep(s) recorded", len(e.trace.Rollbacks), len(e.trace.Sweeps))
	for _, r := range e.trace.Rollbacks {
		logrus.Debugf("timewarp: rollback lp=%d straggler=%.3f restored_from=%.3f anti=%d",
			r.LP, r.StragglerTime, r.RestoredFrom, r.AntiMessages)
	}
	if e.trace.Level != trace.LevelGVT {
		return
	}
	for _, s := range e.trace.Sweeps {
		logrus.Debugf("timewarp: gvt=%.3f fossil_collected=%d", s.Value, s.FossilCollected)
	}
}

// partitionSids splits sids into n near-equal partitions, one per worker,
// dealing them out in turn (sids[i] goes to partition i%n) — a static
// assignment, per spec §5's "LPs are not freely
// schedulable... Different LPs may progress in parallel on different
// threads".
func partitionSids(sids []sim.Sid, n int) [][]sim.Sid {
	if n <= 0 {
		n = 1
	}
	parts := make([][]sim.Sid, n)
	for i, sid := range sids {
		parts[i%n] = append(parts[i%n], sid)
	}
	out := parts[:0]
	for _, p := range parts {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// gvtLoop computes GVT every gvt_period (or, if unset, a sensible
// default), fossil-collects, and signals workers to stop once GVT reaches
// the horizon or the whole system has gone quiescent with nothing left to
// deliver.
func (e *Engine) gvtLoop() {
	period := time.Duration(e.rt.Config().GVTPeriodMicros) * time.Microsecond
	if period <= 0 {
		period = 200 * time.Microsecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			// A worker hit a fatal handler error and requested stop; no
			// point computing a final GVT over a run that's aborting.
			return
		case <-ticker.C:
		}
		gvt := e.computeGVT()
		e.setGVT(gvt)
		collected := e.fossilCollect(gvt)
		e.trace.RecordGVT(trace.GVTRecord{Value: gvt, FossilCollected: collected})

		if gvt >= e.horizon {
			e.requestStop()
			return
		}
		if atomic.LoadInt32(&e.busy) == 0 && e.allMailboxesEmpty() {
			e.requestStop()
			return
		}
		if atomic.LoadInt32(&e.busy) == 0 && e.allCommitted() {
			e.requestStop()
			return
		}
	}
}

// allCommitted reports whether the runtime's optional early-termination
// predicate (Config.Committed) holds for every LP's live state. Only
// meaningful once every worker is idle — it is never safe to read an LP's
// state while a rollback on that LP could still be in flight.
func (e *Engine) allCommitted() bool {
	pred := e.rt.Config().Committed
	if pred == nil {
		return false
	}
	for _, sid := range e.sids {
		if !pred(sid, e.lps[sid].state) {
			return false
		}
	}
	return true
}

func (e *Engine) computeGVT() float64 {
	gvt := posInf
	for _, sid := range e.sids {
		lp := e.lps[sid]
		if lp.lvt < gvt {
			gvt = lp.lvt
		}
		if mts := lp.mailbox.minTimestamp(); mts < gvt {
			gvt = mts
		}
	}
	return gvt
}

func (e *Engine) fossilCollect(gvt float64) int {
	n := 0
	for _, sid := range e.sids {
		lp := e.lps[sid]
		before := len(lp.checkpoints)
		lp.fossilCollect(gvt)
		n += before - len(lp.checkpoints)
	}
	return n
}

func (e *Engine) allMailboxesEmpty() bool {
	for _, sid := range e.sids {
		if !e.lps[sid].mailbox.empty() {
			return false
		}
	}
	return true
}

func (e *Engine) setGVT(v float64) {
	e.gvtMu.Lock()
	e.gvt = v
	e.gvtMu.Unlock()
}

// schedule implements the sim.EventSink a Context hands to handler code;
// every LP shares the same Engine-backed sink, parameterized per-call by
// the sender (Context.Schedule always passes its own Self as sender).
func (e *Engine) schedule(sender, receiver sim.Sid, timestamp float64, kind sim.EventKind, payload sim.Payload) {
	senderLP, ok := e.lps[sender]
	if !ok {
		logrus.Warnf("timewarp: schedule from unregistered sid %d dropped", sender)
		return
	}
	receiverLP, ok := e.lps[receiver]
	if !ok {
		logrus.Warnf("timewarp: event for unregistered sid %d dropped", receiver)
		return
	}
	m := message{sender: sender, receiver: receiver, timestamp: timestamp, kind: kind, payload: payload, seq: senderLP.nextSeqFor(receiver)}
	senderLP.output = append(senderLP.output, outputRecord{causeTimestamp: senderLP.lvt, msg: m})
	receiverLP.mailbox.push(m)
}

// finalize runs after every worker has stopped: a final direct LP_FINI
// dispatch per LP (bypassing the mailbox/rollback machinery entirely,
// exactly like sim.Runtime.runSequential's closing loop — nothing can
// roll back once workers have stopped), then each finalizer, then the
// report.
func (e *Engine) finalize(out io.Writer) {
	var buf bytes.Buffer
	for _, sid := range e.sids {
		lp := e.lps[sid]
		ctx := sim.NewContext(e.horizonOrGVT(), sid, sim.LPFini, nil, lp.state, noopSink{}, e.rt.RNG().ForLP(sid))
		e.rt.Dispatcher()(ctx)
		if lp.fini != nil {
			lp.fini(sid, lp.state, &buf)
		}
	}
	out.Write(buf.Bytes())
}

func (e *Engine) horizonOrGVT() float64 {
	if e.horizon < posInf {
		return e.horizon
	}
	e.gvtMu.Lock()
	defer e.gvtMu.Unlock()
	return e.gvt
}

// noopSink discards any Schedule call made from within an LP_FINI
// handler; per spec §4.1, LP_FINI is the last event every LP receives, so
// nothing it schedules could ever be delivered.
type noopSink struct{}

func (noopSink) Schedule(sender, receiver sim.Sid, timestamp float64, kind sim.EventKind, payload sim.Payload) {
}
