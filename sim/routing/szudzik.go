// Package routing implements the routing subsystem: a szudzik-keyed
// table from (src, dst) service pairs to the hop list between them, the
// per-event route descriptor that walks that hop list, and the
// whitespace-delimited route-file loader.
package routing

import "github.com/distsim/distsim/sim"

// Szudzik computes Szudzik's pairing function over two values widened to
// 64 bits before multiplying, so the result never overflows for any
// (uint32, uint32) input: szudzik(a,b) = a*a+a+b when a>=b, else a+b*b.
// It is injective on u32² (spec §8 property 4) and is used both to key
// the routing table and, in sim/task, to mint task ids.
func Szudzik(a, b uint64) uint64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// key is the routing-table index for an (src,dst) pair.
func key(src, dst sim.Sid) uint64 {
	return Szudzik(uint64(src), uint64(dst))
}
