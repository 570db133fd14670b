package routing

import (
	"github.com/distsim/distsim/sim"
)

// Descriptor is the per-event routing cursor (spec §3): src/dst index the
// routing table, previous is the immediate last forwarder (links use it
// to pick a direction without consulting the table), offset is the next
// position in the hop list, and forward distinguishes the outbound
// (src→dst) leg from the return (dst→src) leg.
type Descriptor struct {
	Src      sim.Sid
	Dst      sim.Sid
	Previous sim.Sid
	Offset   int
	Forward  bool
}

// Forward advances d one hop along route on behalf of self (the LP
// currently holding the packet, about to relay it further). It returns
// the next-hop sid and the descriptor to attach to the event sent there.
// Used by any LP that must forward an arrival bound elsewhere: machines
// relaying a packet addressed to a different machine, switches always
// (a switch is never itself the destination), masters when they sit on
// an intermediate hop of a return route (§4.2, §4.3, §4.4's switch case).
//
// The next hop is route.At(d.Offset) directly, mirroring
// doMachinePacketForwarding/doSwitchPacketForwarding's (*route)[offset]:
// link services sit in the route but never call Forward themselves (see
// onLinkArrival in sim/service, which flips on Previous instead), so
// offset only ever advances at a machine or switch's own forwarding
// decision and needs no searching for self's position. self is carried
// only to stamp Previous on the outgoing descriptor.
func Forward(d Descriptor, self sim.Sid, route Route) (next sim.Sid, nd Descriptor) {
	offset := d.Offset
	newOffset := offset + 1
	if !d.Forward {
		newOffset = offset - 1
	}

	switch {
	case offset < 0:
		next = d.Src
	case offset >= route.Len():
		next = d.Dst
	default:
		next = route.At(offset)
	}

	nd = Descriptor{Src: d.Src, Dst: d.Dst, Previous: self, Offset: newOffset, Forward: d.Forward}
	return next, nd
}

// FirstHop builds the descriptor a master attaches to a freshly generated
// task addressed to slave, and the sid of the first hop to send it to
// (spec §4.5(b)): offset starts at 1 because the route's element 0 is the
// hop the master hands the packet to directly.
func FirstHop(self, slave sim.Sid, route Route) (next sim.Sid, nd Descriptor) {
	return route.At(0), Descriptor{Src: self, Dst: slave, Previous: self, Offset: 1, Forward: true}
}
