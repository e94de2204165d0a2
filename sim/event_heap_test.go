package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHeap_OrdersByTimeThenTypeThenInsertion(t *testing.T) {
	// GIVEN events at the same tick scheduled in "wrong" type order
	h := NewEventHeap()
	h.Schedule(&CreateEvent{Time: 5, MessageID: "M1"})
	h.Schedule(&ConnectionEvent{Time: 5, A: 0, B: 1, Up: true})
	h.Schedule(&ConnectionEvent{Time: 5, A: 2, B: 3, Up: false})
	h.Schedule(&CreateEvent{Time: 5, MessageID: "M2"})
	h.Schedule(&ConnectionEvent{Time: 1, A: 0, B: 1, Up: false})

	// WHEN popped
	var order []string
	for h.Len() > 0 {
		switch e := h.PopNext().(type) {
		case *ConnectionEvent:
			order = append(order, string(e.Type()))
		case *CreateEvent:
			order = append(order, e.MessageID)
		}
	}

	// THEN earlier ticks first, then down, up, create; same type keeps insertion order
	assert.Equal(t, []string{"conn-down", "conn-down", "conn-up", "M1", "M2"}, order)
}

func TestEventHeap_EmptyPeekAndPop(t *testing.T) {
	h := NewEventHeap()
	assert.Nil(t, h.Peek())
	assert.Nil(t, h.PopNext())

	h.Schedule(&CreateEvent{Time: 3, MessageID: "M1"})
	require.NotNil(t, h.Peek())
	assert.Equal(t, int64(3), h.Peek().Timestamp())
	assert.Equal(t, 1, h.Len())
}
