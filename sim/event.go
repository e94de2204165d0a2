package sim

import "github.com/sirupsen/logrus"

// EventType names an external trace event kind.
type EventType string

const (
	EventConnectionDown EventType = "conn-down"
	EventConnectionUp   EventType = "conn-up"
	EventCreate         EventType = "create"
)

// EventTypePriority orders events that share a timestamp: links go down
// before new ones come up, and messages are created once links are settled.
var EventTypePriority = map[EventType]int{
	EventConnectionDown: 0,
	EventConnectionUp:   1,
	EventCreate:         2,
}

// Event defines the interface for external events applied by the Simulator.
// Each event has a Timestamp (in ticks) and an Execute method that changes
// the simulated world when its tick is reached.
type Event interface {
	Timestamp() int64
	Type() EventType
	Execute(*Simulator)
}

// ConnectionEvent brings the link between A and B up or down.
type ConnectionEvent struct {
	Time int64
	A, B NodeID
	Up   bool
}

// Timestamp returns the scheduled time of the ConnectionEvent.
func (e *ConnectionEvent) Timestamp() int64 { return e.Time }

// Type returns conn-up or conn-down.
func (e *ConnectionEvent) Type() EventType {
	if e.Up {
		return EventConnectionUp
	}
	return EventConnectionDown
}

// Execute the ConnectionEvent
func (e *ConnectionEvent) Execute(sim *Simulator) {
	if e.Up {
		logrus.Debugf("<< ConnUp: %d<->%d at %d ticks", e.A, e.B, e.Time)
		sim.connectionUp(e.A, e.B)
		return
	}
	logrus.Debugf("<< ConnDown: %d<->%d at %d ticks", e.A, e.B, e.Time)
	sim.connectionDown(e.A, e.B)
}

// CreateEvent originates a new message at From.
type CreateEvent struct {
	Time      int64
	MessageID string
	From, To  NodeID
	Size      int64
}

// Timestamp returns the scheduled time of the CreateEvent.
func (e *CreateEvent) Timestamp() int64 { return e.Time }

// Type returns EventCreate.
func (e *CreateEvent) Type() EventType { return EventCreate }

// Execute the CreateEvent
func (e *CreateEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Create: %s %d->%d (%d bytes) at %d ticks", e.MessageID, e.From, e.To, e.Size, e.Time)
	sim.createMessage(e.MessageID, e.From, e.To, e.Size)
}
