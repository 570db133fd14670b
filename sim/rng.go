package sim

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// countingSource wraps the standard library's default Source64 and counts
// how many draws have been consumed from it. math/rand.Rand exposes no way
// to snapshot or restore its internal state directly, but every one of its
// methods bottoms out in calls to the underlying Source's Int63/Uint64; a
// source reseeded from scratch and replayed for exactly as many draws as
// were previously consumed reproduces the identical internal state. That
// replay is what makes optimistic-mode rollback able to "rewind" an LP's
// RNG deterministically (spec §4.7, §8 property 2) without a custom PRNG.
type countingSource struct {
	seed  int64
	inner rand.Source64
	draws uint64
}

func newCountingSource(seed int64) *countingSource {
	return &countingSource{seed: seed, inner: rand.NewSource(seed).(rand.Source64)}
}

func (c *countingSource) Int63() int64 {
	c.draws++
	return c.inner.Int63()
}

func (c *countingSource) Uint64() uint64 {
	c.draws++
	return c.inner.Uint64()
}

func (c *countingSource) Seed(seed int64) {
	c.seed = seed
	c.draws = 0
	c.inner.Seed(seed)
}

// checkpoint returns the number of draws consumed since the source was
// seeded.
func (c *countingSource) checkpoint() uint64 { return c.draws }

// restore reseeds the source and replays exactly draws calls, putting it
// back into the state it was in right after that many draws the first
// time around.
func (c *countingSource) restore(draws uint64) {
	c.inner.Seed(c.seed)
	c.draws = 0
	for c.draws < draws {
		c.inner.Int63()
		c.draws++
	}
}

// PartitionedRNG hands out a deterministic, isolated *rand.Rand per LP,
// derived from one master seed. Two runs seeded identically must draw
// identical sequences for the same Sid — required for optimistic mode to
// replay a rolled-back LP byte-for-byte (spec §4.7, §8 property 2).
//
// Derivation: seed(sid) = masterSeed XOR fnv1a64(strconv.Itoa(int(sid))).
// Adapted from the subsystem-keyed derivation in the teacher's
// sim.PartitionedRNG (sim/rng.go), here partitioned by Sid instead of by
// named subsystem string.
//
// Thread-safety: safe for concurrent use by different goroutines calling
// ForLP with different sids; the *rand.Rand each sid maps to is never
// shared across goroutines once handed out, because every LP in
// optimistic mode is owned by exactly one worker at a time. Checkpoint and
// Restore for a given sid must likewise only ever be called by that sid's
// owning worker.
type PartitionedRNG struct {
	seed int64

	mu      chan struct{} // binary semaphore; guards map mutation only
	rngs    map[Sid]*rand.Rand
	sources map[Sid]*countingSource
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	p := &PartitionedRNG{
		seed:    seed,
		mu:      make(chan struct{}, 1),
		rngs:    make(map[Sid]*rand.Rand),
		sources: make(map[Sid]*countingSource),
	}
	p.mu <- struct{}{}
	return p
}

func (p *PartitionedRNG) get(sid Sid) (*rand.Rand, *countingSource) {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()

	if r, ok := p.rngs[sid]; ok {
		return r, p.sources[sid]
	}
	derived := p.seed ^ fnv1a64(strconv.FormatUint(uint64(sid), 10))
	src := newCountingSource(derived)
	r := rand.New(src)
	p.rngs[sid] = r
	p.sources[sid] = src
	return r, src
}

// ForLP returns the *rand.Rand for sid, creating and caching it on first
// use. Never returns nil.
func (p *PartitionedRNG) ForLP(sid Sid) *rand.Rand {
	r, _ := p.get(sid)
	return r
}

// Checkpoint returns the number of draws sid's RNG has consumed so far,
// suitable for later replay via Restore. Used by the optimistic engine to
// snapshot RNG state alongside an LP's state at each checkpoint.
func (p *PartitionedRNG) Checkpoint(sid Sid) uint64 {
	_, src := p.get(sid)
	return src.checkpoint()
}

// Restore rewinds sid's RNG to the state it had after exactly draws calls
// since it was first seeded. Used by the optimistic engine on rollback.
func (p *PartitionedRNG) Restore(sid Sid, draws uint64) {
	_, src := p.get(sid)
	src.restore(draws)
}

// Seed returns the master seed this PartitionedRNG was built from.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
