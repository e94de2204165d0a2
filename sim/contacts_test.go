package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactGraph_Directional(t *testing.T) {
	// GIVEN only the edge 3->7
	g := graph(10, [2]NodeID{3, 7})

	// THEN the reverse lookup is false
	assert.True(t, g.IsContact(3, 7))
	assert.False(t, g.IsContact(7, 3))
	assert.Equal(t, 1, g.EdgeCount())
}

func TestContactGraph_InfrastructureIsContactOfEveryone(t *testing.T) {
	g := graph(5)
	for u := NodeID(0); u < 5; u++ {
		assert.True(t, g.IsContact(u, 5), "user %d -> infra", u)
		assert.True(t, g.IsContact(5, u), "infra -> user %d", u)
	}
	assert.True(t, g.IsContact(6, 9))
	assert.True(t, g.IsInfrastructure(5))
	assert.False(t, g.IsInfrastructure(4))
}

func TestNewContactGraph_IgnoresOutOfRangeAndDuplicates(t *testing.T) {
	g := NewContactGraph(4, map[NodeID][]NodeID{
		0:  {1, 1, 9, 2},
		7:  {0},
		-1: {0},
		3:  {-2},
	})

	assert.Equal(t, []NodeID{1, 2}, g.Contacts(0))
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []NodeID{0}, g.UsersWithContacts())
	assert.False(t, g.HasContacts(3))
	assert.Nil(t, g.Contacts(7))
}

func TestContactGraph_ContactsReturnsCopy(t *testing.T) {
	g := graph(3, [2]NodeID{0, 1})

	cs := g.Contacts(0)
	cs[0] = 2

	assert.Equal(t, []NodeID{1}, g.Contacts(0))
	assert.False(t, g.IsContact(0, 2))
}
