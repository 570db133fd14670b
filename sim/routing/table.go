package routing

import (
	"fmt"

	"github.com/distsim/distsim/sim"
)

// Route is the ordered sequence of intermediate link/switch sids forming
// the path strictly between src and dst; neither endpoint appears in it.
type Route []sim.Sid

// Len reports the hop count.
func (r Route) Len() int { return len(r) }

// At returns the sid at the given offset into the route.
func (r Route) At(offset int) sim.Sid { return r[offset] }

// ErrRouteNotFound is returned by Table.Get when no route has been
// registered for the requested (src, dst) pair. Per spec §7 this is a
// RoutingError: fatal at event-processing time.
type ErrRouteNotFound struct {
	Src, Dst sim.Sid
}

func (e *ErrRouteNotFound) Error() string {
	return fmt.Sprintf("routing: no route from %d to %d", e.Src, e.Dst)
}

// Table is a read-only-during-simulation mapping from szudzik(src,dst) to
// Route. Built once before the run starts (sim/model.Builder or
// LoadFile), then shared by reference across every worker — safe
// because nothing mutates it once the run begins (spec §5).
type Table struct {
	routes map[uint64]Route
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{routes: make(map[uint64]Route)}
}

// Add registers (or overwrites) the route between src and dst.
func (t *Table) Add(src, dst sim.Sid, route Route) {
	t.routes[key(src, dst)] = route
}

// Get returns the route between src and dst, or ErrRouteNotFound.
func (t *Table) Get(src, dst sim.Sid) (Route, error) {
	r, ok := t.routes[key(src, dst)]
	if !ok {
		return nil, &ErrRouteNotFound{Src: src, Dst: dst}
	}
	return r, nil
}

// Len returns the number of registered routes.
func (t *Table) Len() int { return len(t.routes) }
