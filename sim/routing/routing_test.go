package routing

import (
	"strings"
	"testing"

	"github.com/distsim/distsim/sim"
	"github.com/stretchr/testify/require"
)

func TestSzudzikInjective_S5(t *testing.T) {
	// S5: for all (a,b) with a,b <= 1000, the image set has exactly
	// 1001*1001 = 1002001 elements.
	seen := make(map[uint64]struct{}, 1002001)
	for a := uint64(0); a <= 1000; a++ {
		for b := uint64(0); b <= 1000; b++ {
			seen[Szudzik(a, b)] = struct{}{}
		}
	}
	require.Equal(t, 1001*1001, len(seen))
}

func TestSzudzikFormula(t *testing.T) {
	require.Equal(t, uint64(4), Szudzik(2, 0))
	require.Equal(t, uint64(0), Szudzik(0, 0))
	// a >= b branch: a*a+a+b
	require.Equal(t, uint64(3*3+3+1), Szudzik(3, 1))
	// a < b branch: a+b*b
	require.Equal(t, uint64(1+3*3), Szudzik(1, 3))
}

func TestTableAddGet(t *testing.T) {
	tbl := NewTable()
	tbl.Add(sim.Sid(0), sim.Sid(2), Route{sim.Sid(1)})

	route, err := tbl.Get(0, 2)
	require.NoError(t, err)
	require.Equal(t, 1, route.Len())
	require.Equal(t, sim.Sid(1), route.At(0))
}

func TestTableGetMissing_S6(t *testing.T) {
	tbl := NewTable()
	tbl.Add(sim.Sid(0), sim.Sid(2), Route{sim.Sid(1)})

	_, err := tbl.Get(0, 999)
	require.Error(t, err)
	var notFound *ErrRouteNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestTableAddOverwrites(t *testing.T) {
	tbl := NewTable()
	tbl.Add(sim.Sid(0), sim.Sid(2), Route{sim.Sid(1)})
	tbl.Add(sim.Sid(0), sim.Sid(2), Route{sim.Sid(9), sim.Sid(8)})

	route, err := tbl.Get(0, 2)
	require.NoError(t, err)
	require.Equal(t, Route{sim.Sid(9), sim.Sid(8)}, route)
}

func TestLoadReader_S1Route(t *testing.T) {
	tbl, err := LoadReader(strings.NewReader("0 2 1\n"))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	route, err := tbl.Get(0, 2)
	require.NoError(t, err)
	require.Equal(t, Route{sim.Sid(1)}, route)
}

func TestLoadReader_RingTopology(t *testing.T) {
	tbl, err := LoadReader(strings.NewReader(
		"0 2 1\n" +
			"0 3 1 6 2\n" +
			"0 4 1 7 3\n" +
			"0 5 1 6 2 7 3\n",
	))
	require.NoError(t, err)
	require.Equal(t, 4, tbl.Len())
}

func TestLoadReader_RejectsEmptyLine(t *testing.T) {
	_, err := LoadReader(strings.NewReader("0 2 1\n\n0 3 1 2\n"))
	require.Error(t, err)
}

func TestLoadReader_RejectsHopEqualToEndpoint(t *testing.T) {
	_, err := LoadReader(strings.NewReader("0 2 0\n"))
	require.Error(t, err)
}

func TestRouteNeitherEndpointPresent_Invariant(t *testing.T) {
	// spec §8 property 3: returned hop list is non-empty and contains
	// neither src nor dst.
	tbl, err := LoadReader(strings.NewReader("0 5 1 6 2 7 3\n"))
	require.NoError(t, err)
	route, err := tbl.Get(0, 5)
	require.NoError(t, err)
	require.Greater(t, route.Len(), 0)
	for i := 0; i < route.Len(); i++ {
		require.NotEqual(t, sim.Sid(0), route.At(i))
		require.NotEqual(t, sim.Sid(5), route.At(i))
	}
}

func TestForwardAdvancesOffsetForward(t *testing.T) {
	route := Route{sim.Sid(1), sim.Sid(6), sim.Sid(2)}
	d := Descriptor{Src: 0, Dst: 3, Previous: 0, Offset: 1, Forward: true}
	next, nd := Forward(d, sim.Sid(6), route)
	require.Equal(t, sim.Sid(6), next, "next hop is route.At(offset), the entry the offset already names")
	require.Equal(t, 2, nd.Offset)
	require.Equal(t, sim.Sid(6), nd.Previous)
	require.True(t, nd.Forward)
}

func TestForwardAdvancesOffsetBackward(t *testing.T) {
	route := Route{sim.Sid(1), sim.Sid(6), sim.Sid(2)}
	d := Descriptor{Src: 0, Dst: 3, Previous: 2, Offset: 1, Forward: false}
	next, nd := Forward(d, sim.Sid(6), route)
	require.Equal(t, sim.Sid(6), next, "next hop is route.At(offset) regardless of direction; only the stored offset for the next leg differs")
	require.Equal(t, 0, nd.Offset)
	require.False(t, nd.Forward)
}

func TestForwardExitsTowardDstAtEndOfRoute(t *testing.T) {
	route := Route{sim.Sid(1), sim.Sid(6)}
	d := Descriptor{Src: 0, Dst: 9, Previous: 1, Offset: 2, Forward: true}
	next, nd := Forward(d, sim.Sid(6), route)
	require.Equal(t, sim.Sid(9), next, "offset at the route's length must land on dst")
	require.True(t, nd.Forward)
}

func TestForwardExitsTowardSrcAtStartOfRoute(t *testing.T) {
	route := Route{sim.Sid(1), sim.Sid(6)}
	d := Descriptor{Src: 0, Dst: 9, Previous: 6, Offset: -1, Forward: false}
	next, _ := Forward(d, sim.Sid(1), route)
	require.Equal(t, sim.Sid(0), next, "a negative offset must land on src")
}

func TestForwardDoesNotRequireSelfOnRoute(t *testing.T) {
	// A relaying machine is never itself an entry in its own route (spec
	// §4.2); Forward must resolve the next hop from d.Offset alone, the
	// way doMachinePacketForwarding/doSwitchPacketForwarding index
	// (*route)[offset] directly, not by locating self in the array.
	route := Route{sim.Sid(1), sim.Sid(3), sim.Sid(5)}
	d := Descriptor{Src: 0, Dst: 6, Previous: 1, Offset: 1, Forward: true}
	next, nd := Forward(d, sim.Sid(2), route)
	require.Equal(t, sim.Sid(3), next)
	require.Equal(t, 2, nd.Offset)
	require.Equal(t, sim.Sid(2), nd.Previous)
}

func TestFirstHop(t *testing.T) {
	route := Route{sim.Sid(1)}
	next, d := FirstHop(sim.Sid(0), sim.Sid(2), route)
	require.Equal(t, sim.Sid(1), next)
	require.Equal(t, Descriptor{Src: 0, Dst: 2, Previous: 0, Offset: 1, Forward: true}, d)
}
