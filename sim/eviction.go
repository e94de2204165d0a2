package sim

import "fmt"

// EvictionPolicy picks the buffered message to drop when a host needs space.
// It returns nil when no message may be evicted; the caller then rejects the
// incoming message rather than forcing a removal.
type EvictionPolicy interface {
	SelectEvictionVictim(n Node, excludeInFlight bool) *Message
}

// OldestFirst evicts the buffered message with the smallest receive time.
type OldestFirst struct{}

// SelectEvictionVictim implements EvictionPolicy for OldestFirst.
func (OldestFirst) SelectEvictionVictim(n Node, excludeInFlight bool) *Message {
	return oldestMatching(n, excludeInFlight, nil)
}

// ContactProtecting evicts like OldestFirst but never selects a message whose
// origin is a social contact of the host. A buffer holding only such messages
// has no victim.
type ContactProtecting struct {
	contacts ContactLookup
}

// NewContactProtecting creates a ContactProtecting eviction policy.
func NewContactProtecting(contacts ContactLookup) *ContactProtecting {
	if contacts == nil {
		panic("NewContactProtecting: contacts must not be nil")
	}
	return &ContactProtecting{contacts: contacts}
}

// SelectEvictionVictim implements EvictionPolicy for ContactProtecting.
func (cp *ContactProtecting) SelectEvictionVictim(n Node, excludeInFlight bool) *Message {
	self := n.ID()
	return oldestMatching(n, excludeInFlight, func(m *Message) bool {
		return cp.contacts.IsContact(self, m.From)
	})
}

// oldestMatching returns the oldest buffered message not rejected by skip,
// optionally skipping messages the host is sending. Ties keep the earlier
// message in natural order.
func oldestMatching(n Node, excludeInFlight bool, skip messageMatch) *Message {
	var oldest *Message
	for _, m := range n.Buffer().Snapshot() {
		if skip != nil && skip(m) {
			continue
		}
		if excludeInFlight && n.IsSending(m.ID) {
			continue
		}
		if oldest == nil || m.ReceiveTime < oldest.ReceiveTime {
			oldest = m
		}
	}
	return oldest
}

// NewEvictionPolicy returns the eviction policy paired with a routing policy:
// contact-tiered protects contact-originated messages, the baselines evict
// the oldest message. Panics on unrecognized names.
func NewEvictionPolicy(routing string, contacts ContactLookup) EvictionPolicy {
	if !IsValidRoutingPolicy(routing) {
		panic(fmt.Sprintf("unknown routing policy %q", routing))
	}
	switch routing {
	case "", "contact-tiered":
		return NewContactProtecting(contacts)
	default:
		return OldestFirst{}
	}
}
