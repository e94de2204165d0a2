package sim

import (
	"fmt"
	"math/rand"
)

// TransferStatus is the outcome of an attempt to start a transfer.
// Only TransferAccepted means a transfer was started; every other status is
// a soft failure and the policy moves on to its next candidate.
type TransferStatus int

const (
	TransferAccepted         TransferStatus = iota
	TransferBusy                            // sender, receiver or link already transferring
	TransferAlreadyHave                     // receiver already buffers this id
	TransferAlreadyDelivered                // receiver is the destination and already got it
	TransferNoSpace                         // receiver could not free enough space
	TransferExpired                         // message TTL elapsed
	TransferDenied                          // anything else (link down, message gone)
)

var transferStatusNames = map[TransferStatus]string{
	TransferAccepted:         "accepted",
	TransferBusy:             "busy",
	TransferAlreadyHave:      "already-have",
	TransferAlreadyDelivered: "already-delivered",
	TransferNoSpace:          "no-space",
	TransferExpired:          "expired",
	TransferDenied:           "denied",
}

func (s TransferStatus) String() string {
	if name, ok := transferStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Tier is the priority level of the routing procedure that started a transfer.
type Tier string

const (
	TierDirect        Tier = "direct"
	TierContactOrigin Tier = "contact-origin"
	TierContactRelay  Tier = "contact-relay"
	TierFlood         Tier = "flood"
)

// Direction tells whether this host offered (push) or requested (pull) the message.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// Node is the view of a host that the engine hands to policies.
// Connections and buffers are only valid for the duration of the call.
type Node interface {
	ID() NodeID
	// Connections returns the links active at call time, in natural order.
	Connections() []*Connection
	Buffer() *MessageBuffer
	// IsTransferring reports whether any of the host's links carries a transfer.
	IsTransferring() bool
	// CanStartTransfer reports whether the host has at least one active link.
	CanStartTransfer() bool
	// IsSending reports whether the host is currently sending message id.
	IsSending(id string) bool
	// StartTransfer offers m from this host's buffer to the other end of con.
	StartTransfer(m *Message, con *Connection) TransferStatus
	// PeerMessages returns a snapshot of peer's buffer in natural order.
	PeerMessages(peer NodeID) []*Message
	// Pull asks the other end of con to send m from its buffer to this host.
	Pull(m *Message, con *Connection) TransferStatus
}

// Decision describes the transfer a policy started during an update.
type Decision struct {
	Tier       Tier
	Direction  Direction
	Message    *Message
	Connection *Connection
	Reason     string
}

// RoutingPolicy decides, once per tick, which single message to hand off over
// which link. Update returns the started transfer, or nil when it started none.
// Implementations hold no state that must persist between ticks.
type RoutingPolicy interface {
	Update(n Node) *Decision
}

// ValidRoutingPolicies is the set of recognized routing policy names.
var ValidRoutingPolicies = map[string]bool{"": true, "contact-tiered": true, "flood": true, "direct-only": true}

// IsValidRoutingPolicy returns true if name is a recognized routing policy.
func IsValidRoutingPolicy(name string) bool {
	return ValidRoutingPolicies[name]
}

// messageMatch is a social predicate over a buffered message.
type messageMatch func(m *Message) bool

// exchangeDeliverable tries every buffered message whose destination is the
// other end of some active link, across all links. It returns the started
// decision or nil.
func exchangeDeliverable(n Node, mode QueueMode, rng *rand.Rand) *Decision {
	self := n.ID()
	cons := n.Connections()
	if len(cons) == 0 {
		return nil
	}
	var cands []candidate
	for _, m := range n.Buffer().Snapshot() {
		for _, con := range cons {
			if con.OtherNode(self) == m.To {
				cands = append(cands, candidate{msg: m, con: con})
			}
		}
	}
	sortCandidates(cands, mode, rng)
	if d := tryCandidates(n, cands, TierDirect); d != nil {
		return d
	}

	// Messages the peers hold for this host.
	for _, con := range cons {
		if n.IsTransferring() {
			break
		}
		for _, m := range n.PeerMessages(con.OtherNode(self)) {
			if m.To != self {
				continue
			}
			if n.Pull(m, con) == TransferAccepted {
				return &Decision{Tier: TierDirect, Direction: DirectionPull, Message: m, Connection: con,
					Reason: "deliverable (pull)"}
			}
		}
	}
	return nil
}

// tryCandidates pushes each candidate in order and stops at the first accepted start.
func tryCandidates(n Node, cands []candidate, tier Tier) *Decision {
	for _, c := range cands {
		if !c.con.IsUp() {
			continue
		}
		if n.StartTransfer(c.msg, c.con) == TransferAccepted {
			return &Decision{Tier: tier, Direction: DirectionPush, Message: c.msg, Connection: c.con,
				Reason: fmt.Sprintf("%s (push)", tier)}
		}
	}
	return nil
}

// exchangeMatching runs one social tier: push every buffered message that
// satisfies match over every active link in queue order, then fall back to
// pulling matching messages from each peer's buffer snapshot.
func exchangeMatching(n Node, tier Tier, match messageMatch, mode QueueMode, rng *rand.Rand) *Decision {
	self := n.ID()
	cons := n.Connections()
	if len(cons) == 0 {
		return nil
	}

	var cands []candidate
	for _, m := range n.Buffer().Snapshot() {
		if !match(m) {
			continue
		}
		for _, con := range cons {
			cands = append(cands, candidate{msg: m, con: con})
		}
	}
	sortCandidates(cands, mode, rng)
	if d := tryCandidates(n, cands, tier); d != nil {
		return d
	}

	for _, con := range cons {
		if n.IsTransferring() {
			continue
		}
		// A started pull removes or adds messages, so iterate a snapshot.
		for _, m := range n.PeerMessages(con.OtherNode(self)) {
			if !match(m) {
				continue
			}
			if n.Pull(m, con) == TransferAccepted {
				return &Decision{Tier: tier, Direction: DirectionPull, Message: m, Connection: con,
					Reason: fmt.Sprintf("%s (pull)", tier)}
			}
		}
	}
	return nil
}

// tryAllMessagesToAllConnections pushes every buffered message over every
// active link with no social predicate.
func tryAllMessagesToAllConnections(n Node, mode QueueMode, rng *rand.Rand) *Decision {
	cons := n.Connections()
	if len(cons) == 0 || n.Buffer().Len() == 0 {
		return nil
	}
	msgs := n.Buffer().Sorted(mode, rng)
	for _, con := range cons {
		for _, m := range msgs {
			if !con.IsUp() {
				break
			}
			if n.StartTransfer(m, con) == TransferAccepted {
				return &Decision{Tier: TierFlood, Direction: DirectionPush, Message: m, Connection: con,
					Reason: "flood (push)"}
			}
		}
	}
	return nil
}

// ContactTiered prioritizes messages by social provenance:
// direct delivery, then messages originated by contacts, then messages last
// forwarded by contacts, then everything.
type ContactTiered struct {
	contacts ContactLookup
	mode     QueueMode
	rng      *rand.Rand
}

// NewContactTiered creates a ContactTiered policy over the given relation.
func NewContactTiered(contacts ContactLookup, mode QueueMode, rng *rand.Rand) *ContactTiered {
	if contacts == nil {
		panic("NewContactTiered: contacts must not be nil")
	}
	return &ContactTiered{contacts: contacts, mode: mode, rng: rng}
}

// Update implements RoutingPolicy for ContactTiered.
func (ct *ContactTiered) Update(n Node) *Decision {
	if n.IsTransferring() || !n.CanStartTransfer() {
		return nil
	}
	if d := exchangeDeliverable(n, ct.mode, ct.rng); d != nil {
		return d
	}
	self := n.ID()
	fromContact := func(m *Message) bool {
		return ct.contacts.IsContact(self, m.From)
	}
	if d := exchangeMatching(n, TierContactOrigin, fromContact, ct.mode, ct.rng); d != nil {
		return d
	}
	relayedByContact := func(m *Message) bool {
		last, ok := m.LastHop()
		return ok && ct.contacts.IsContact(self, last)
	}
	if d := exchangeMatching(n, TierContactRelay, relayedByContact, ct.mode, ct.rng); d != nil {
		return d
	}
	return tryAllMessagesToAllConnections(n, ct.mode, ct.rng)
}

// FloodOnly is the epidemic baseline: direct delivery, then flood.
type FloodOnly struct {
	mode QueueMode
	rng  *rand.Rand
}

// Update implements RoutingPolicy for FloodOnly.
func (f *FloodOnly) Update(n Node) *Decision {
	if n.IsTransferring() || !n.CanStartTransfer() {
		return nil
	}
	if d := exchangeDeliverable(n, f.mode, f.rng); d != nil {
		return d
	}
	return tryAllMessagesToAllConnections(n, f.mode, f.rng)
}

// DirectOnly only hands messages to their destination and never relays.
type DirectOnly struct {
	mode QueueMode
	rng  *rand.Rand
}

// Update implements RoutingPolicy for DirectOnly.
func (do *DirectOnly) Update(n Node) *Decision {
	if n.IsTransferring() || !n.CanStartTransfer() {
		return nil
	}
	return exchangeDeliverable(n, do.mode, do.rng)
}

// NewRoutingPolicy creates a routing policy by name.
// Empty string defaults to contact-tiered. contacts is only used by
// contact-tiered; rng is only used by QueueModeRandom.
// Panics on unrecognized names.
func NewRoutingPolicy(name string, contacts ContactLookup, mode QueueMode, rng *rand.Rand) RoutingPolicy {
	if !IsValidRoutingPolicy(name) {
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
	if mode == "" {
		mode = QueueModeFIFO
	}
	switch name {
	case "", "contact-tiered":
		return NewContactTiered(contacts, mode, rng)
	case "flood":
		return &FloodOnly{mode: mode, rng: rng}
	case "direct-only":
		return &DirectOnly{mode: mode, rng: rng}
	default:
		panic(fmt.Sprintf("unhandled routing policy %q", name))
	}
}
