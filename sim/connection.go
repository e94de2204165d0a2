package sim

import "fmt"

// ConnectionKey identifies an unordered host pair; A is always the smaller id.
type ConnectionKey struct {
	A, B NodeID
}

// NewConnectionKey normalizes the pair (a, b).
func NewConnectionKey(a, b NodeID) ConnectionKey {
	if a > b {
		a, b = b, a
	}
	return ConnectionKey{A: a, B: b}
}

// Transfer is a message copy in flight over a connection.
type Transfer struct {
	Msg       *Message // sender's copy at start time
	From      NodeID
	To        NodeID
	StartedAt int64
	Remaining int64 // bytes left to send
}

// Connection is a currently known link between two hosts. It is created and
// torn down by the engine; policies only observe it. At most one Transfer is
// in flight on a connection.
type Connection struct {
	key      ConnectionKey
	up       bool
	transfer *Transfer
}

// NewConnection creates an up connection between a and b.
func NewConnection(a, b NodeID) *Connection {
	return &Connection{key: NewConnectionKey(a, b), up: true}
}

// Key returns the normalized host pair.
func (c *Connection) Key() ConnectionKey {
	return c.key
}

// OtherNode returns the endpoint opposite n. Panics if n is not an endpoint.
func (c *Connection) OtherNode(n NodeID) NodeID {
	switch n {
	case c.key.A:
		return c.key.B
	case c.key.B:
		return c.key.A
	default:
		panic(fmt.Sprintf("OtherNode: %d is not an endpoint of %v", n, c.key))
	}
}

// Has reports whether n is an endpoint.
func (c *Connection) Has(n NodeID) bool {
	return c.key.A == n || c.key.B == n
}

// IsUp reports whether the link is currently active.
func (c *Connection) IsUp() bool {
	return c.up
}

// IsTransferring reports whether a transfer is in flight.
func (c *Connection) IsTransferring() bool {
	return c.transfer != nil
}

// Transfer returns the in-flight transfer, or nil.
func (c *Connection) Transfer() *Transfer {
	return c.transfer
}

func (c *Connection) String() string {
	state := "down"
	if c.up {
		state = "up"
	}
	return fmt.Sprintf("%d<->%d(%s)", c.key.A, c.key.B, state)
}
