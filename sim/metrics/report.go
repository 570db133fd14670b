// Package metrics formats the per-LP counters accumulated in
// sim/service's state structs into the free-form end-of-run report spec
// §6 asks for ("No schema compatibility is required"). Grounded on the
// teacher's (*sim.Metrics).Print: a fixed sequence of fmt.Fprintf calls,
// no template engine, no JSON.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/distsim/distsim/sim"
	"github.com/distsim/distsim/sim/service"
)

// Reporter accumulates every LP's finalized state so PrintReport can
// print them together, sorted by sid, once the run completes. Runtime
// finalizers call Capture as each LP's LPFini fires; the caller calls
// PrintReport once after Run returns. The distsim CLI in cmd does not
// wire a Reporter.
type Reporter struct {
	entries map[sim.Sid]sim.LPState
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{entries: make(map[sim.Sid]sim.LPState)}
}

// Capture is a sim.FiniFunc: wire it as every LP's finalizer (or compose
// it with a model-specific one) to have PrintReport see that LP's final
// counters.
func (r *Reporter) Capture(self sim.Sid, state sim.LPState, _ io.Writer) {
	r.entries[self] = state
}

// PrintReport writes one block per captured LP, in sid order, followed by
// a cluster-wide summary line.
func (r *Reporter) PrintReport(w io.Writer) {
	sids := make([]sim.Sid, 0, len(r.entries))
	for sid := range r.entries {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })

	var totalCompleted uint64
	var totalProcTasks uint64
	var totalCommTasks uint64

	fmt.Fprintln(w, "=== Simulation Report ===")
	for _, sid := range sids {
		switch st := r.entries[sid].(type) {
		case *service.MasterState:
			fmt.Fprintf(w, "master[%d]: completed_tasks=%d last_activity=%.3f\n",
				sid, st.Metrics.CompletedTasks, st.Metrics.LastActivityTime)
			totalCompleted += st.Metrics.CompletedTasks
		case *service.MachineState:
			fmt.Fprintf(w, "machine[%d]: proc_tasks=%d proc_time=%.3f proc_mflops=%.3f forwarded=%d\n",
				sid, st.Metrics.ProcTasks, st.Metrics.ProcTime, st.Metrics.ProcMflops, st.Metrics.ForwardedPackets)
			totalProcTasks += st.Metrics.ProcTasks
		case *service.LinkState:
			fmt.Fprintf(w, "link[%d]: comm_tasks=%d comm_time=%.3f comm_mbits=%.3f\n",
				sid, st.Metrics.CommTasks, st.Metrics.CommTime, st.Metrics.CommMbits)
			totalCommTasks += st.Metrics.CommTasks
		case *service.SwitchState:
			fmt.Fprintf(w, "switch[%d]: comm_tasks=%d comm_time=%.3f comm_mbits=%.3f\n",
				sid, st.Metrics.CommTasks, st.Metrics.CommTime, st.Metrics.CommMbits)
			totalCommTasks += st.Metrics.CommTasks
		}
	}
	fmt.Fprintf(w, "--- totals: completed=%d proc_tasks=%d comm_tasks=%d\n",
		totalCompleted, totalProcTasks, totalCommTasks)
}
