package timewarp

import "github.com/distsim/distsim/sim"

// message is one entry moving through a mailbox: either a positive event
// (negative == false) or the anti-message cancelling a previously sent
// positive with the same identity. Spec §4.1: "Anti-message matching is
// by (sender, receiver, timestamp, payload fingerprint)... a monotone
// per-(sender,receiver) sequence number works and is preferred" — seq is
// that sequence number, assigned by the sender's own worker when the
// message is first created, so (sender, receiver, seq) alone identifies a
// message uniquely (timestamp is carried along but not part of the key,
// since a message and its anti-message always share it by construction).
type message struct {
	sender, receiver sim.Sid
	timestamp        float64
	kind             sim.EventKind
	payload          sim.Payload
	seq              uint64
	negative         bool
}

// msgKey identifies a message and its anti-message twin.
type msgKey struct {
	sender, receiver sim.Sid
	seq              uint64
}

func (m message) key() msgKey {
	return msgKey{sender: m.sender, receiver: m.receiver, seq: m.seq}
}

// antiOf returns the anti-message cancelling m.
func (m message) antiOf() message {
	m.negative = true
	return m
}
