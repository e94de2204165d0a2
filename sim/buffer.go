// Implements the MessageBuffer, the bounded per-host store of buffered messages.
// Messages are inserted on creation or receipt and removed on delivery, eviction, or expiry.

package sim

import (
	"fmt"
	"math/rand"
	"strings"
)

// MessageBuffer holds a host's messages keyed by id.
// Insertion order is the buffer's natural order; Sorted applies a QueueMode.
// A capacity of 0 means unbounded.
//
// Thread-safety: NOT thread-safe. Only the owning host mutates its buffer.
type MessageBuffer struct {
	capacity int64
	used     int64
	order    []*Message          // insertion order
	byID     map[string]*Message // id -> message
}

// NewMessageBuffer creates an empty buffer with the given capacity in bytes.
func NewMessageBuffer(capacity int64) *MessageBuffer {
	if capacity < 0 {
		panic(fmt.Sprintf("NewMessageBuffer: capacity must be >= 0, got %d", capacity))
	}
	return &MessageBuffer{
		capacity: capacity,
		byID:     make(map[string]*Message),
	}
}

// Add inserts m. It returns an error if a message with the same id is already
// buffered or if m does not fit in the remaining space.
func (b *MessageBuffer) Add(m *Message) error {
	if _, ok := b.byID[m.ID]; ok {
		return fmt.Errorf("message %s already buffered", m.ID)
	}
	if b.capacity > 0 && m.Size > b.FreeSpace() {
		return fmt.Errorf("message %s (%d bytes) exceeds free space %d", m.ID, m.Size, b.FreeSpace())
	}
	b.order = append(b.order, m)
	b.byID[m.ID] = m
	b.used += m.Size
	return nil
}

// Remove deletes the message with the given id and returns it, or nil if absent.
func (b *MessageBuffer) Remove(id string) *Message {
	m, ok := b.byID[id]
	if !ok {
		return nil
	}
	delete(b.byID, id)
	for i, cur := range b.order {
		if cur.ID == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.used -= m.Size
	return m
}

// Get returns the buffered message with the given id, or nil.
func (b *MessageBuffer) Get(id string) *Message {
	return b.byID[id]
}

// Has reports whether a message with the given id is buffered.
func (b *MessageBuffer) Has(id string) bool {
	_, ok := b.byID[id]
	return ok
}

// Len returns the number of buffered messages.
func (b *MessageBuffer) Len() int {
	return len(b.order)
}

// Capacity returns the configured capacity in bytes (0 = unbounded).
func (b *MessageBuffer) Capacity() int64 {
	return b.capacity
}

// Used returns the number of bytes occupied.
func (b *MessageBuffer) Used() int64 {
	return b.used
}

// FreeSpace returns the remaining bytes, or -1 for an unbounded buffer.
func (b *MessageBuffer) FreeSpace() int64 {
	if b.capacity == 0 {
		return -1
	}
	return b.capacity - b.used
}

// Fits reports whether size bytes could fit without evicting anything.
func (b *MessageBuffer) Fits(size int64) bool {
	return b.capacity == 0 || size <= b.FreeSpace()
}

// Snapshot returns a copy of the buffer contents in natural order.
// The slice is safe to iterate while the buffer is mutated.
func (b *MessageBuffer) Snapshot() []*Message {
	out := make([]*Message, len(b.order))
	copy(out, b.order)
	return out
}

// Sorted returns a snapshot ordered by mode. rng is only used by QueueModeRandom.
func (b *MessageBuffer) Sorted(mode QueueMode, rng *rand.Rand) []*Message {
	msgs := b.Snapshot()
	SortMessages(msgs, mode, rng)
	return msgs
}

// MakeRoom evicts messages until size bytes fit, all or nothing.
// Victims are first chosen against a scratch copy of the buffer: selectVictim
// receives that copy and must pick from it, and each pick is removed from the
// copy before the next call. Only when the picks free enough space are they
// removed from b. If selectVictim returns nil first, b is left untouched and
// ok is false.
func (b *MessageBuffer) MakeRoom(size int64, selectVictim func(plan *MessageBuffer) *Message) (evicted []*Message, ok bool) {
	if b.capacity > 0 && size > b.capacity {
		return nil, false
	}
	if b.Fits(size) {
		return nil, true
	}
	plan := b.clone()
	var victims []*Message
	for !plan.Fits(size) {
		victim := selectVictim(plan)
		if victim == nil {
			return nil, false
		}
		if plan.Remove(victim.ID) == nil {
			panic(fmt.Sprintf("MakeRoom: victim %s is not buffered", victim.ID))
		}
		victims = append(victims, victim)
	}
	for _, v := range victims {
		evicted = append(evicted, b.Remove(v.ID))
	}
	return evicted, true
}

// clone returns a buffer with the same capacity and contents. Messages are shared.
func (b *MessageBuffer) clone() *MessageBuffer {
	c := &MessageBuffer{
		capacity: b.capacity,
		used:     b.used,
		order:    b.Snapshot(),
		byID:     make(map[string]*Message, len(b.byID)),
	}
	for id, m := range b.byID {
		c.byID[id] = m
	}
	return c
}

func (b *MessageBuffer) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, m := range b.order {
		sb.WriteString(m.ID)
		if i < len(b.order)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
