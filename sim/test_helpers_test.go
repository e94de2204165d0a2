package sim

// attempt records one transfer start a policy asked for.
type attempt struct {
	id   string
	peer NodeID
	dir  Direction
}

// fakeNode is a scripted Node: accept decides the status of every attempt and
// an accepted attempt marks the node as transferring.
type fakeNode struct {
	id           NodeID
	buf          *MessageBuffer
	conns        []*Connection
	peers        map[NodeID]*MessageBuffer
	transferring bool
	sending      map[string]bool
	accept       func(m *Message, peer NodeID, dir Direction) TransferStatus
	attempts     []attempt
}

func newFakeNode(id NodeID, peers ...NodeID) *fakeNode {
	n := &fakeNode{
		id:      id,
		buf:     NewMessageBuffer(0),
		peers:   make(map[NodeID]*MessageBuffer),
		sending: make(map[string]bool),
	}
	for _, p := range peers {
		n.conns = append(n.conns, NewConnection(id, p))
		n.peers[p] = NewMessageBuffer(0)
	}
	return n
}

func (n *fakeNode) ID() NodeID                 { return n.id }
func (n *fakeNode) Buffer() *MessageBuffer     { return n.buf }
func (n *fakeNode) IsTransferring() bool       { return n.transferring }
func (n *fakeNode) CanStartTransfer() bool     { return len(n.Connections()) > 0 }
func (n *fakeNode) IsSending(id string) bool   { return n.sending[id] }
func (n *fakeNode) Connections() []*Connection { return n.activeConns() }

func (n *fakeNode) activeConns() []*Connection {
	out := make([]*Connection, 0, len(n.conns))
	for _, c := range n.conns {
		if c.IsUp() {
			out = append(out, c)
		}
	}
	return out
}

func (n *fakeNode) StartTransfer(m *Message, con *Connection) TransferStatus {
	return n.try(m, con.OtherNode(n.id), DirectionPush)
}

func (n *fakeNode) Pull(m *Message, con *Connection) TransferStatus {
	return n.try(m, con.OtherNode(n.id), DirectionPull)
}

func (n *fakeNode) PeerMessages(peer NodeID) []*Message {
	if b, ok := n.peers[peer]; ok {
		return b.Snapshot()
	}
	return nil
}

func (n *fakeNode) try(m *Message, peer NodeID, dir Direction) TransferStatus {
	n.attempts = append(n.attempts, attempt{id: m.ID, peer: peer, dir: dir})
	status := TransferDenied
	if n.accept != nil {
		status = n.accept(m, peer, dir)
	}
	if status == TransferAccepted {
		n.transferring = true
	}
	return status
}

// attemptIDs returns the message ids of all recorded attempts, in order.
func (n *fakeNode) attemptIDs() []string {
	ids := make([]string, len(n.attempts))
	for i, a := range n.attempts {
		ids[i] = a.id
	}
	return ids
}

func acceptAll(*Message, NodeID, Direction) TransferStatus { return TransferAccepted }

// msg builds a buffered message with the given origin, destination and receive time.
func msg(id string, from, to NodeID, recv int64, hops ...NodeID) *Message {
	m := NewMessage(id, from, to, 100, recv, 0)
	m.Hops = hops
	return m
}

func mustAdd(b *MessageBuffer, msgs ...*Message) {
	for _, m := range msgs {
		if err := b.Add(m); err != nil {
			panic(err)
		}
	}
}

// graph builds a ContactGraph from "a->b" pairs.
func graph(population int, edges ...[2]NodeID) *ContactGraph {
	adj := make(map[NodeID][]NodeID)
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
	}
	return NewContactGraph(population, adj)
}
