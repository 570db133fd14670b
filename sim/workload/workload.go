// Package workload implements the task-size and arrival-cadence generators
// a master LP draws from. Every random draw takes the caller's LP-local
// *rand.Rand explicitly (spec §4.7) — no generator here touches the global
// math/rand source, so a rollback-and-replay sees identical draws.
package workload

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Workload is the interface a master LP's scheduler consults to size each
// task it dispatches and, for open-loop variants, to advance its own next
// arrival time.
type Workload interface {
	// Next draws the processing and communication size for one task.
	Next(rng *rand.Rand) (proc, comm float64)
	// Remaining reports whether the workload has more tasks to emit.
	Remaining() bool
	// SetArrivalTime returns the next absolute arrival time given the
	// current one. Closed-loop variants (Constant, UniformRandom) leave
	// it unchanged — their next task is driven by on_completed_task, not
	// a timer. Open-loop variants (PoissonArrival, FixedInterarrival)
	// advance it.
	SetArrivalTime(rng *rand.Rand, current float64) float64
	// Clone returns an independent copy, so a master's checkpoint can
	// snapshot its workload's remaining-count/cursor state and restore
	// it verbatim on rollback.
	Clone() Workload
}

// Constant emits a fixed number of tasks of identical size.
type Constant struct {
	Proc, Comm float64
	remaining  int
}

// NewConstant returns a Constant workload that emits count tasks of the
// given proc/comm size.
func NewConstant(proc, comm float64, count int) *Constant {
	return &Constant{Proc: proc, Comm: comm, remaining: count}
}

func (c *Constant) Next(rng *rand.Rand) (proc, comm float64) {
	if c.remaining > 0 {
		c.remaining--
	}
	return c.Proc, c.Comm
}

func (c *Constant) Remaining() bool { return c.remaining > 0 }

func (c *Constant) SetArrivalTime(rng *rand.Rand, current float64) float64 { return current }

// Clone returns an independent copy for LP-state checkpointing.
func (c *Constant) Clone() Workload {
	cp := *c
	return &cp
}

// UniformRandom draws proc and comm sizes independently and uniformly from
// [min,max], per spec §4.7: Random()*(max-min)+min.
type UniformRandom struct {
	ProcMin, ProcMax float64
	CommMin, CommMax float64
	remaining        int
}

// NewUniformRandom returns a UniformRandom workload that emits count tasks.
func NewUniformRandom(procMin, procMax, commMin, commMax float64, count int) *UniformRandom {
	return &UniformRandom{ProcMin: procMin, ProcMax: procMax, CommMin: commMin, CommMax: commMax, remaining: count}
}

func (u *UniformRandom) Next(rng *rand.Rand) (proc, comm float64) {
	if u.remaining > 0 {
		u.remaining--
	}
	proc = distuv.Uniform{Min: u.ProcMin, Max: u.ProcMax, Src: rng}.Rand()
	comm = distuv.Uniform{Min: u.CommMin, Max: u.CommMax, Src: rng}.Rand()
	return proc, comm
}

func (u *UniformRandom) Remaining() bool { return u.remaining > 0 }

func (u *UniformRandom) SetArrivalTime(rng *rand.Rand, current float64) float64 { return current }

// Clone returns an independent copy for LP-state checkpointing.
func (u *UniformRandom) Clone() Workload {
	cp := *u
	return &cp
}

// GaussianSizes draws proc and comm sizes from a clamped Normal
// distribution (supplemented from the original distribution generators:
// never below a configured floor, so rollback never replays a negative or
// zero-size task).
type GaussianSizes struct {
	ProcMean, ProcStdDev float64
	CommMean, CommStdDev float64
	Min                  float64
	remaining             int
}

// NewGaussianSizes returns a GaussianSizes workload that emits count tasks.
func NewGaussianSizes(procMean, procStdDev, commMean, commStdDev, min float64, count int) *GaussianSizes {
	return &GaussianSizes{ProcMean: procMean, ProcStdDev: procStdDev, CommMean: commMean, CommStdDev: commStdDev, Min: min, remaining: count}
}

func (g *GaussianSizes) Next(rng *rand.Rand) (proc, comm float64) {
	if g.remaining > 0 {
		g.remaining--
	}
	proc = clampMin(distuv.Normal{Mu: g.ProcMean, Sigma: g.ProcStdDev, Src: rng}.Rand(), g.Min)
	comm = clampMin(distuv.Normal{Mu: g.CommMean, Sigma: g.CommStdDev, Src: rng}.Rand(), g.Min)
	return proc, comm
}

func (g *GaussianSizes) Remaining() bool { return g.remaining > 0 }

func (g *GaussianSizes) SetArrivalTime(rng *rand.Rand, current float64) float64 { return current }

// Clone returns an independent copy for LP-state checkpointing.
func (g *GaussianSizes) Clone() Workload {
	cp := *g
	return &cp
}

func clampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// PoissonArrival wraps a size-generating Workload with a Poisson (memoryless
// exponential inter-arrival) open-loop arrival process: each call to
// SetArrivalTime advances by Expon(rate) (spec §4.7's "Expent(λ)").
type PoissonArrival struct {
	Workload
	Rate float64
}

// NewPoissonArrival wraps sizes with a Poisson arrival process of the given
// rate (tasks per unit simulation time).
func NewPoissonArrival(sizes Workload, rate float64) *PoissonArrival {
	return &PoissonArrival{Workload: sizes, Rate: rate}
}

func (p *PoissonArrival) SetArrivalTime(rng *rand.Rand, current float64) float64 {
	return current + distuv.Exponential{Rate: p.Rate, Src: rng}.Rand()
}

// Clone returns an independent copy, deep-copying the wrapped size
// generator.
func (p *PoissonArrival) Clone() Workload {
	return &PoissonArrival{Workload: p.Workload.Clone(), Rate: p.Rate}
}

// FixedInterarrival wraps a size-generating Workload with a deterministic
// open-loop arrival process: each call to SetArrivalTime advances by a
// fixed offset.
type FixedInterarrival struct {
	Workload
	Interval float64
}

// NewFixedInterarrival wraps sizes with a fixed-interval arrival process.
func NewFixedInterarrival(sizes Workload, interval float64) *FixedInterarrival {
	return &FixedInterarrival{Workload: sizes, Interval: interval}
}

func (f *FixedInterarrival) SetArrivalTime(rng *rand.Rand, current float64) float64 {
	return current + f.Interval
}

// Clone returns an independent copy, deep-copying the wrapped size
// generator.
func (f *FixedInterarrival) Clone() Workload {
	return &FixedInterarrival{Workload: f.Workload.Clone(), Interval: f.Interval}
}
