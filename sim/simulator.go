// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/dtn-sim/sim/trace"
)

// Simulator is the core object that holds simulation time, the hosts, their
// links, and the tick loop. Each tick it applies due trace events, advances
// in-flight transfers, drops expired copies, and lets every host's routing
// policy start at most one transfer.
type Simulator struct {
	Clock   int64
	Horizon int64
	// drain keeps ticking past Horizon until in-flight transfers finish.
	// Set when no horizon is configured and the run ends at the last event.
	drain bool

	cfg      SimConfig
	contacts ContactLookup
	events   *EventHeap
	hosts    []*Host
	conns    map[ConnectionKey]*Connection
	rng      *PartitionedRNG

	Metrics *Metrics
	Trace   *trace.SimulationTrace
}

// NewSimulator creates a simulator for the given events. Hosts are created for
// ids 0..max(cfg.NumHosts, highest id in events + 1)-1, each with its own
// routing and eviction policy instances built from cfg over contacts.
// tr may be nil to disable decision tracing.
func NewSimulator(cfg SimConfig, contacts ContactLookup, events []Event, tr *trace.SimulationTrace) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if contacts == nil {
		return nil, fmt.Errorf("contact lookup must not be nil")
	}
	if cfg.QueueMode == "" {
		cfg.QueueMode = QueueModeFIFO
	}

	s := &Simulator{
		cfg:      cfg,
		contacts: contacts,
		events:   NewEventHeap(),
		conns:    make(map[ConnectionKey]*Connection),
		rng:      NewPartitionedRNG(cfg.Seed),
		Metrics:  NewMetrics(),
		Trace:    tr,
	}

	numHosts := cfg.NumHosts
	var lastEvent int64
	for _, ev := range events {
		maxID, err := validateEvent(ev)
		if err != nil {
			return nil, err
		}
		if int(maxID)+1 > numHosts {
			numHosts = int(maxID) + 1
		}
		if ev.Timestamp() > lastEvent {
			lastEvent = ev.Timestamp()
		}
		s.events.Schedule(ev)
	}

	s.Horizon = cfg.Horizon
	if s.Horizon == 0 {
		s.Horizon = lastEvent
		s.drain = true
	}

	s.hosts = make([]*Host, numHosts)
	for i := range s.hosts {
		id := NodeID(i)
		router := NewRoutingPolicy(cfg.Routing, contacts, cfg.QueueMode, s.rng.ForSubsystem(SubsystemHost(id)))
		s.hosts[i] = newHost(id, s, router, NewEvictionPolicy(cfg.Routing, contacts))
	}
	return s, nil
}

// validateEvent returns the highest host id an event refers to.
func validateEvent(ev Event) (NodeID, error) {
	if ev.Timestamp() < 0 {
		return 0, fmt.Errorf("event at negative time %d", ev.Timestamp())
	}
	switch e := ev.(type) {
	case *ConnectionEvent:
		if e.A < 0 || e.B < 0 {
			return 0, fmt.Errorf("connection event at %d: negative host id", e.Time)
		}
		if e.A == e.B {
			return 0, fmt.Errorf("connection event at %d: host %d connected to itself", e.Time, e.A)
		}
		return max(e.A, e.B), nil
	case *CreateEvent:
		if e.From < 0 || e.To < 0 {
			return 0, fmt.Errorf("create event %s: negative host id", e.MessageID)
		}
		if e.Size < 0 {
			return 0, fmt.Errorf("create event %s: negative size %d", e.MessageID, e.Size)
		}
		return max(e.From, e.To), nil
	default:
		return 0, fmt.Errorf("unsupported event type %T", ev)
	}
}

// Host returns the host with the given id, or nil.
func (sim *Simulator) Host(id NodeID) *Host {
	if id < 0 || int(id) >= len(sim.hosts) {
		return nil
	}
	return sim.hosts[id]
}

// NumHosts returns the number of simulated hosts.
func (sim *Simulator) NumHosts() int {
	return len(sim.hosts)
}

// Run advances the clock by the update interval until the horizon. Without a
// configured horizon it then drains: transfers already in flight keep
// progressing, with no new ones started, until none is left.
func (sim *Simulator) Run() {
	for sim.Clock <= sim.Horizon {
		sim.Step()
		sim.Clock += sim.cfg.UpdateInterval
	}
	end := sim.Horizon
	for sim.drain && sim.transfersInFlight() {
		sim.progressTransfers()
		sim.dropExpired()
		end = sim.Clock
		sim.Clock += sim.cfg.UpdateInterval
	}
	sim.Clock = end
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
}

func (sim *Simulator) transfersInFlight() bool {
	for _, h := range sim.hosts {
		if h.IsTransferring() {
			return true
		}
	}
	return false
}

// Step executes one tick at the current clock.
func (sim *Simulator) Step() {
	for {
		ev := sim.events.Peek()
		if ev == nil || ev.Timestamp() > sim.Clock {
			break
		}
		sim.events.PopNext()
		ev.Execute(sim)
	}

	sim.progressTransfers()
	sim.dropExpired()

	for _, h := range sim.hosts {
		d := h.router.Update(h)
		if d == nil {
			continue
		}
		sim.recordDecision(h.id, d)
	}
}

func (sim *Simulator) connectionUp(a, b NodeID) {
	key := NewConnectionKey(a, b)
	if c, ok := sim.conns[key]; ok && c.IsUp() {
		return
	}
	c := NewConnection(a, b)
	sim.conns[key] = c
	sim.hosts[a].addConnection(c)
	sim.hosts[b].addConnection(c)
}

func (sim *Simulator) connectionDown(a, b NodeID) {
	key := NewConnectionKey(a, b)
	c, ok := sim.conns[key]
	if !ok {
		return
	}
	if t := c.transfer; t != nil {
		logrus.Debugf("[tick %07d] transfer of %s %d->%d aborted", sim.Clock, t.Msg.ID, t.From, t.To)
		c.transfer = nil
		sim.Metrics.Aborted++
	}
	c.up = false
	delete(sim.conns, key)
	sim.hosts[a].removeConnection(c)
	sim.hosts[b].removeConnection(c)
}

func (sim *Simulator) createMessage(id string, from, to NodeID, size int64) {
	h := sim.hosts[from]
	m := NewMessage(id, from, to, size, sim.Clock, sim.cfg.MessageTTL)
	sim.Metrics.Created++
	if !h.accept(m) {
		logrus.Warnf("[tick %07d] host %d has no room for new message %s (%d bytes)", sim.Clock, from, id, size)
		sim.Metrics.Rejected++
	}
}

// startTransfer starts sending m from host from to host to over con.
// It is the only cross-host mutation a policy can trigger: on success the
// connection carries the transfer (and the receiver may have evicted to make
// room), on failure nothing changes.
func (sim *Simulator) startTransfer(from, to NodeID, m *Message, con *Connection) TransferStatus {
	if !con.IsUp() || !con.Has(from) || !con.Has(to) || from == to {
		return TransferDenied
	}
	sender, receiver := sim.Host(from), sim.Host(to)
	if sender == nil || receiver == nil {
		return TransferDenied
	}
	msg := sender.buffer.Get(m.ID)
	if msg == nil {
		return TransferDenied
	}
	if msg.IsExpired(sim.Clock) {
		return TransferExpired
	}
	if con.IsTransferring() || sender.IsTransferring() || receiver.IsTransferring() {
		return TransferBusy
	}
	if receiver.buffer.Has(msg.ID) {
		return TransferAlreadyHave
	}
	if msg.To == to {
		if receiver.HasDelivered(msg.ID) {
			return TransferAlreadyDelivered
		}
	} else if !receiver.buffer.Fits(msg.Size) && !receiver.makeRoom(msg.Size) {
		return TransferNoSpace
	}

	con.transfer = &Transfer{
		Msg:       msg,
		From:      from,
		To:        to,
		StartedAt: sim.Clock,
		Remaining: msg.Size,
	}
	sim.Metrics.Started++
	return TransferAccepted
}

// progressTransfers moves every in-flight transfer forward by one interval
// and completes the finished ones in connection order. A transfer whose
// message expired is aborted; the expired copy never reaches the receiver.
func (sim *Simulator) progressTransfers() {
	budget := sim.cfg.TransmitSpeed * sim.cfg.UpdateInterval
	for _, h := range sim.hosts {
		for _, c := range h.conns {
			t := c.transfer
			if t == nil || t.From != h.id {
				continue
			}
			if t.Msg.IsExpired(sim.Clock) {
				logrus.Debugf("[tick %07d] transfer of %s %d->%d aborted: message expired", sim.Clock, t.Msg.ID, t.From, t.To)
				c.transfer = nil
				sim.Metrics.Aborted++
				continue
			}
			if t.StartedAt >= sim.Clock {
				continue
			}
			t.Remaining -= budget
			if t.Remaining <= 0 {
				c.transfer = nil
				sim.completeTransfer(t)
			}
		}
	}
}

func (sim *Simulator) completeTransfer(t *Transfer) {
	sender, receiver := sim.hosts[t.From], sim.hosts[t.To]
	replica := t.Msg.Replicate()
	replica.AddHop(t.From)
	replica.ReceiveTime = sim.Clock
	sim.Metrics.Relayed++
	sim.Metrics.BufferTimes = append(sim.Metrics.BufferTimes, float64(t.StartedAt-t.Msg.ReceiveTime))

	if replica.To == t.To {
		if !receiver.HasDelivered(replica.ID) {
			receiver.delivered.Add(replica.ID, struct{}{})
			sim.Metrics.Delivered++
			sim.Metrics.DeliveryLatencies = append(sim.Metrics.DeliveryLatencies, float64(sim.Clock-replica.CreationTime))
			sim.Metrics.HopCounts = append(sim.Metrics.HopCounts, float64(replica.HopCount()))
			logrus.Debugf("[tick %07d] %s delivered to %d after %d hops", sim.Clock, replica.ID, t.To, replica.HopCount())
		}
		sender.buffer.Remove(replica.ID)
		return
	}

	if !receiver.accept(replica) {
		sim.Metrics.Rejected++
	}
}

func (sim *Simulator) dropExpired() {
	if sim.cfg.MessageTTL == 0 {
		return
	}
	for _, h := range sim.hosts {
		for _, m := range h.buffer.Snapshot() {
			if m.IsExpired(sim.Clock) {
				h.buffer.Remove(m.ID)
				sim.Metrics.Expired++
			}
		}
	}
}

func (sim *Simulator) recordDecision(node NodeID, d *Decision) {
	sim.Metrics.TierStarts[d.Tier]++
	sim.Metrics.DirectionStarts[d.Direction]++
	if !sim.Trace.Enabled() {
		return
	}
	sim.Trace.RecordTransfer(trace.TransferRecord{
		Clock:     sim.Clock,
		Node:      int(node),
		Peer:      int(d.Connection.OtherNode(node)),
		MessageID: d.Message.ID,
		Tier:      string(d.Tier),
		Direction: string(d.Direction),
		Reason:    d.Reason,
	})
}

func (sim *Simulator) recordEviction(node NodeID, victim *Message) {
	if victim == nil {
		sim.Metrics.NoVictim++
	}
	if !sim.Trace.Enabled() {
		return
	}
	rec := trace.EvictionRecord{Clock: sim.Clock, Node: int(node), Found: victim != nil}
	if victim != nil {
		rec.MessageID = victim.ID
	}
	sim.Trace.RecordEviction(rec)
}
