package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuffer_AddRemoveAccounting(t *testing.T) {
	b := NewMessageBuffer(250)

	require.NoError(t, b.Add(msg("M1", 0, 1, 0)))
	require.NoError(t, b.Add(msg("M2", 0, 1, 1)))
	assert.Equal(t, int64(200), b.Used())
	assert.Equal(t, int64(50), b.FreeSpace())

	// Duplicate ids and oversize messages are refused.
	assert.Error(t, b.Add(msg("M1", 0, 1, 2)))
	assert.Error(t, b.Add(msg("M3", 0, 1, 2)))
	assert.Equal(t, 2, b.Len())

	removed := b.Remove("M1")
	require.NotNil(t, removed)
	assert.Equal(t, "M1", removed.ID)
	assert.Nil(t, b.Remove("M1"))
	assert.False(t, b.Has("M1"))
	assert.Equal(t, int64(100), b.Used())
	assert.Equal(t, "[M2]", b.String())
}

func TestMessageBuffer_Unbounded(t *testing.T) {
	b := NewMessageBuffer(0)
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, b.Add(msg(id, 0, 1, 0)))
	}
	assert.Equal(t, int64(-1), b.FreeSpace())
	assert.True(t, b.Fits(1<<40))
}

func TestNewMessageBuffer_NegativeCapacity_Panics(t *testing.T) {
	assert.Panics(t, func() { NewMessageBuffer(-1) })
}

func TestMessageBuffer_SnapshotIsolatedFromMutation(t *testing.T) {
	b := NewMessageBuffer(0)
	mustAdd(b, msg("A", 0, 1, 0), msg("B", 0, 1, 0))

	snap := b.Snapshot()
	b.Remove("A")
	mustAdd(b, msg("C", 0, 1, 0))

	require.Len(t, snap, 2)
	assert.Equal(t, "A", snap[0].ID)
	assert.Equal(t, "B", snap[1].ID)
}

func TestMessageBuffer_SortedFIFO(t *testing.T) {
	b := NewMessageBuffer(0)
	mustAdd(b,
		msg("C", 0, 1, 5),
		msg("B", 0, 1, 2),
		msg("A", 0, 1, 5),
	)

	sorted := b.Sorted(QueueModeFIFO, nil)

	ids := make([]string, len(sorted))
	for i, m := range sorted {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"B", "A", "C"}, ids)
	// Natural order is unchanged.
	assert.Equal(t, "[C B A]", b.String())
}

func TestMessageBuffer_MakeRoom(t *testing.T) {
	oldest := func(plan *MessageBuffer) *Message {
		sorted := plan.Sorted(QueueModeFIFO, nil)
		if len(sorted) == 0 {
			return nil
		}
		return sorted[0]
	}

	t.Run("evicts until the message fits", func(t *testing.T) {
		// GIVEN a full 300-byte buffer
		b := NewMessageBuffer(300)
		mustAdd(b, msg("M1", 0, 1, 0), msg("M2", 0, 1, 1), msg("M3", 0, 1, 2))

		// WHEN 150 bytes are requested
		evicted, ok := b.MakeRoom(150, oldest)

		// THEN the two oldest are evicted
		assert.True(t, ok)
		require.Len(t, evicted, 2)
		assert.Equal(t, "M1", evicted[0].ID)
		assert.Equal(t, "M2", evicted[1].ID)
		assert.Equal(t, int64(200), b.FreeSpace())
	})

	t.Run("larger than capacity", func(t *testing.T) {
		b := NewMessageBuffer(300)
		mustAdd(b, msg("M1", 0, 1, 0))

		evicted, ok := b.MakeRoom(400, oldest)

		assert.False(t, ok)
		assert.Empty(t, evicted)
		assert.Equal(t, 1, b.Len())
	})

	t.Run("no victim", func(t *testing.T) {
		b := NewMessageBuffer(200)
		mustAdd(b, msg("M1", 0, 1, 0), msg("M2", 0, 1, 1))

		evicted, ok := b.MakeRoom(100, func(*MessageBuffer) *Message { return nil })

		assert.False(t, ok)
		assert.Empty(t, evicted)
		assert.Equal(t, 2, b.Len())
	})

	t.Run("victims that free too little evict nothing", func(t *testing.T) {
		// GIVEN a full 300-byte buffer where only M2 may go
		b := NewMessageBuffer(300)
		mustAdd(b, msg("M1", 0, 1, 0), msg("M2", 0, 1, 1), msg("M3", 0, 1, 2))
		pickM2 := func(plan *MessageBuffer) *Message { return plan.Get("M2") }

		// WHEN 250 bytes are requested
		evicted, ok := b.MakeRoom(250, pickM2)

		// THEN the buffer is unchanged
		assert.False(t, ok)
		assert.Empty(t, evicted)
		assert.Equal(t, "[M1 M2 M3]", b.String())
		assert.Equal(t, int64(300), b.Used())
	})

	t.Run("already fits", func(t *testing.T) {
		b := NewMessageBuffer(200)
		mustAdd(b, msg("M1", 0, 1, 0))

		evicted, ok := b.MakeRoom(100, func(*MessageBuffer) *Message {
			t.Fatal("no victim should be requested")
			return nil
		})

		assert.True(t, ok)
		assert.Empty(t, evicted)
	})
}

func TestMessage_ReplicateAndHops(t *testing.T) {
	m := NewMessage("M1", 0, 5, 100, 10, 0)
	_, ok := m.LastHop()
	assert.False(t, ok)

	m.AddHop(3)
	cp := m.Replicate()
	cp.AddHop(4)

	last, ok := cp.LastHop()
	assert.True(t, ok)
	assert.Equal(t, NodeID(4), last)
	assert.Equal(t, []NodeID{3}, m.Hops)
	assert.Equal(t, 2, cp.HopCount())
}

func TestMessage_IsExpired(t *testing.T) {
	assert.False(t, NewMessage("M1", 0, 1, 1, 10, 0).IsExpired(1<<40))
	m := NewMessage("M2", 0, 1, 1, 10, 5)
	assert.False(t, m.IsExpired(14))
	assert.True(t, m.IsExpired(15))
}

func TestConnection_Endpoints(t *testing.T) {
	c := NewConnection(7, 3)
	assert.Equal(t, ConnectionKey{A: 3, B: 7}, c.Key())
	assert.Equal(t, NodeID(3), c.OtherNode(7))
	assert.Equal(t, NodeID(7), c.OtherNode(3))
	assert.True(t, c.Has(3))
	assert.False(t, c.IsTransferring())
	assert.Panics(t, func() { c.OtherNode(1) })
}

func TestIDLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{a: "M2", b: "M10", want: true},
		{a: "M10", b: "M2", want: false},
		{a: "M007", b: "M10", want: true},
		{a: "M07", b: "M7", want: true},
		{a: "A9", b: "B1", want: true},
		{a: "M", b: "M1", want: true},
		{a: "x", b: "x", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, idLess(tt.a, tt.b))
		})
	}
}
