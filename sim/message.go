// Defines the Message struct that models a single DTN message copy held by a host.
// Tracks origin, destination, hop history, and the timestamps used for ordering and expiry.

package sim

import "fmt"

// NodeID identifies a simulated host. Ids in [0, population) are users of the
// social dataset; ids at or above the population are infrastructure hosts
// (e.g. mailboxes) that every user treats as a contact.
type NodeID int

// Message is one host's copy of a message.
//
// Hops holds the hosts the copy passed through before reaching its current
// holder, oldest first. It is append-only: the forwarder is appended to the
// receiver's replica when a transfer completes, so the last element is always
// the most recent forwarder. A message created locally has no hops.
type Message struct {
	ID string // globally unique, never reused

	From NodeID // originating host
	To   NodeID // final destination

	Hops []NodeID

	CreationTime int64 // tick the message was created at its origin
	ReceiveTime  int64 // tick this copy entered the current holder's buffer
	Size         int64 // bytes
	TTL          int64 // lifetime in ticks from CreationTime; 0 = never expires
}

// NewMessage creates a message originated at from at the given clock.
func NewMessage(id string, from, to NodeID, size int64, clock, ttl int64) *Message {
	return &Message{
		ID:           id,
		From:         from,
		To:           to,
		CreationTime: clock,
		ReceiveTime:  clock,
		Size:         size,
		TTL:          ttl,
	}
}

// LastHop returns the most recent forwarder of this copy.
// ok is false for a message that has not been forwarded yet.
func (m *Message) LastHop() (n NodeID, ok bool) {
	if len(m.Hops) == 0 {
		return 0, false
	}
	return m.Hops[len(m.Hops)-1], true
}

// HopCount returns the number of forwarders recorded in the hop history.
func (m *Message) HopCount() int {
	return len(m.Hops)
}

// Replicate returns a deep copy of m whose hop history can be appended to
// without affecting the original.
func (m *Message) Replicate() *Message {
	cp := *m
	cp.Hops = make([]NodeID, len(m.Hops), len(m.Hops)+1)
	copy(cp.Hops, m.Hops)
	return &cp
}

// AddHop appends a forwarder to the hop history.
func (m *Message) AddHop(n NodeID) {
	m.Hops = append(m.Hops, n)
}

// IsExpired reports whether the message's time-to-live has elapsed at clock.
func (m *Message) IsExpired(clock int64) bool {
	if m.TTL <= 0 {
		return false
	}
	return clock >= m.CreationTime+m.TTL
}

func (m *Message) String() string {
	return fmt.Sprintf("%s(%d->%d)", m.ID, m.From, m.To)
}
