package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactProtecting_OnlyContactMessages_NoVictim(t *testing.T) {
	// GIVEN a buffer holding only messages originated by contacts 1 and 2
	n := newFakeNode(0)
	mustAdd(n.buf,
		msg("M1", 1, 5, 0),
		msg("M2", 2, 5, 1),
	)
	policy := NewContactProtecting(graph(10, [2]NodeID{0, 1}, [2]NodeID{0, 2}))

	// WHEN a victim is requested
	victim := policy.SelectEvictionVictim(n, false)

	// THEN none is returned and the buffer is untouched
	assert.Nil(t, victim)
	assert.Equal(t, 2, n.buf.Len())
}

func TestContactProtecting_PicksOldestUnprotected(t *testing.T) {
	n := newFakeNode(0)
	mustAdd(n.buf,
		msg("M1", 1, 5, 0), // oldest, but protected
		msg("M2", 6, 5, 3),
		msg("M3", 7, 5, 2),
	)
	policy := NewContactProtecting(graph(10, [2]NodeID{0, 1}))

	victim := policy.SelectEvictionVictim(n, false)

	require.NotNil(t, victim)
	assert.Equal(t, "M3", victim.ID)
}

func TestContactProtecting_DirectionalContacts(t *testing.T) {
	// Edge 1->0 does not make 1 a contact of 0.
	n := newFakeNode(0)
	mustAdd(n.buf, msg("M1", 1, 5, 0))
	policy := NewContactProtecting(graph(10, [2]NodeID{1, 0}))

	victim := policy.SelectEvictionVictim(n, false)

	require.NotNil(t, victim)
	assert.Equal(t, "M1", victim.ID)
}

func TestContactProtecting_InfrastructureOriginProtected(t *testing.T) {
	n := newFakeNode(0)
	mustAdd(n.buf, msg("M1", 12, 5, 0))
	policy := NewContactProtecting(graph(10))

	assert.Nil(t, policy.SelectEvictionVictim(n, false))
}

func TestEviction_ExcludeInFlight(t *testing.T) {
	tests := []struct {
		name            string
		policy          EvictionPolicy
		excludeInFlight bool
		want            string
	}{
		{name: "oldest-first includes in-flight", policy: OldestFirst{}, excludeInFlight: false, want: "M1"},
		{name: "oldest-first skips in-flight", policy: OldestFirst{}, excludeInFlight: true, want: "M2"},
		{name: "contact-protecting skips in-flight", policy: NewContactProtecting(graph(10)), excludeInFlight: true, want: "M2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN M1 (oldest) currently being sent
			n := newFakeNode(0)
			mustAdd(n.buf,
				msg("M1", 5, 6, 0),
				msg("M2", 5, 6, 1),
				msg("M3", 5, 6, 2),
			)
			n.sending["M1"] = true

			victim := tt.policy.SelectEvictionVictim(n, tt.excludeInFlight)

			require.NotNil(t, victim)
			assert.Equal(t, tt.want, victim.ID)
		})
	}
}

func TestOldestFirst_TieKeepsNaturalOrder(t *testing.T) {
	n := newFakeNode(0)
	mustAdd(n.buf,
		msg("M9", 5, 6, 4),
		msg("M1", 5, 6, 4),
	)

	victim := OldestFirst{}.SelectEvictionVictim(n, false)

	require.NotNil(t, victim)
	assert.Equal(t, "M9", victim.ID)
}

func TestOldestFirst_EmptyBuffer(t *testing.T) {
	assert.Nil(t, OldestFirst{}.SelectEvictionVictim(newFakeNode(0), true))
}

func TestNewEvictionPolicy_PairsWithRouting(t *testing.T) {
	contacts := graph(3)
	assert.IsType(t, &ContactProtecting{}, NewEvictionPolicy("", contacts))
	assert.IsType(t, &ContactProtecting{}, NewEvictionPolicy("contact-tiered", contacts))
	assert.IsType(t, OldestFirst{}, NewEvictionPolicy("flood", contacts))
	assert.IsType(t, OldestFirst{}, NewEvictionPolicy("direct-only", contacts))
	assert.Panics(t, func() { NewEvictionPolicy("lru", contacts) })
	assert.Panics(t, func() { NewContactProtecting(nil) })
}
