package sim

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Host is one simulated node: its buffer, its links, and its own policy
// instances. Hosts never share mutable state; cross-host effects go through
// the Simulator's transfer operations.
type Host struct {
	id       NodeID
	sim      *Simulator
	buffer   *MessageBuffer
	router   RoutingPolicy
	eviction EvictionPolicy
	// delivered remembers ids delivered to this host so repeated copies are refused.
	delivered *lru.Cache[string, struct{}]
	conns     []*Connection // active links, in the order they came up
}

func newHost(id NodeID, sim *Simulator, router RoutingPolicy, eviction EvictionPolicy) *Host {
	cache, err := lru.New[string, struct{}](sim.cfg.DeliveredCacheSize)
	if err != nil {
		panic(fmt.Sprintf("newHost: %v", err))
	}
	return &Host{
		id:        id,
		sim:       sim,
		buffer:    NewMessageBuffer(sim.cfg.BufferSize),
		router:    router,
		eviction:  eviction,
		delivered: cache,
	}
}

// ID implements Node.
func (h *Host) ID() NodeID { return h.id }

// Buffer implements Node.
func (h *Host) Buffer() *MessageBuffer { return h.buffer }

// Connections implements Node. The returned slice is a copy.
func (h *Host) Connections() []*Connection {
	out := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		if c.IsUp() {
			out = append(out, c)
		}
	}
	return out
}

// IsTransferring implements Node.
func (h *Host) IsTransferring() bool {
	for _, c := range h.conns {
		if c.IsTransferring() {
			return true
		}
	}
	return false
}

// CanStartTransfer implements Node.
func (h *Host) CanStartTransfer() bool {
	for _, c := range h.conns {
		if c.IsUp() {
			return true
		}
	}
	return false
}

// IsSending implements Node.
func (h *Host) IsSending(id string) bool {
	for _, c := range h.conns {
		if t := c.Transfer(); t != nil && t.From == h.id && t.Msg.ID == id {
			return true
		}
	}
	return false
}

// StartTransfer implements Node.
func (h *Host) StartTransfer(m *Message, con *Connection) TransferStatus {
	if !con.Has(h.id) {
		return TransferDenied
	}
	return h.sim.startTransfer(h.id, con.OtherNode(h.id), m, con)
}

// Pull implements Node.
func (h *Host) Pull(m *Message, con *Connection) TransferStatus {
	if !con.Has(h.id) {
		return TransferDenied
	}
	return h.sim.startTransfer(con.OtherNode(h.id), h.id, m, con)
}

// PeerMessages implements Node.
func (h *Host) PeerMessages(peer NodeID) []*Message {
	other := h.sim.Host(peer)
	if other == nil {
		return nil
	}
	return other.buffer.Snapshot()
}

// HasDelivered reports whether message id was delivered to this host.
func (h *Host) HasDelivered(id string) bool {
	return h.delivered.Contains(id)
}

// makeRoom frees space for size bytes using the host's eviction policy.
// Nothing is evicted unless the chosen victims free enough space together.
func (h *Host) makeRoom(size int64) bool {
	if h.buffer.Capacity() > 0 && size > h.buffer.Capacity() {
		return false
	}
	evicted, ok := h.buffer.MakeRoom(size, func(plan *MessageBuffer) *Message {
		return h.eviction.SelectEvictionVictim(plannedHost{Host: h, plan: plan}, true)
	})
	if !ok {
		h.sim.recordEviction(h.id, nil)
		return false
	}
	for _, m := range evicted {
		h.sim.recordEviction(h.id, m)
	}
	h.sim.Metrics.Dropped += len(evicted)
	return true
}

// plannedHost is a Host whose buffer is replaced by an eviction plan, so a
// policy can pick several victims before any is removed.
type plannedHost struct {
	*Host
	plan *MessageBuffer
}

func (p plannedHost) Buffer() *MessageBuffer { return p.plan }

// accept buffers a copy, freeing space first. Returns false if it did not fit.
func (h *Host) accept(m *Message) bool {
	if !h.buffer.Fits(m.Size) && !h.makeRoom(m.Size) {
		return false
	}
	if err := h.buffer.Add(m); err != nil {
		return false
	}
	return true
}

func (h *Host) addConnection(c *Connection) {
	h.conns = append(h.conns, c)
}

func (h *Host) removeConnection(c *Connection) {
	for i, cur := range h.conns {
		if cur == c {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			return
		}
	}
}
