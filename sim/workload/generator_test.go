package workload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/dtn-sim/sim"
)

// ringGraph links every user to its successor, in both directions.
func ringGraph(population int) *sim.ContactGraph {
	adj := make(map[sim.NodeID][]sim.NodeID)
	for i := 0; i < population; i++ {
		next := sim.NodeID((i + 1) % population)
		adj[sim.NodeID(i)] = append(adj[sim.NodeID(i)], next)
		adj[next] = append(adj[next], sim.NodeID(i))
	}
	return sim.NewContactGraph(population, adj)
}

func testSpec() *GeneratorSpec {
	return &GeneratorSpec{
		Seed:              7,
		HybridNodes:       4,
		Mailboxes:         3,
		MsgSizeMin:        1000,
		MsgSizeMax:        5000,
		DailyMsgsPerHost:  2,
		LastConnTimestamp: 3 * secondsPerDay,
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	graph := ringGraph(10)

	a, err := Generate(testSpec(), graph)
	require.NoError(t, err)
	b, err := Generate(testSpec(), graph)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_EventsAreSortedAndValid(t *testing.T) {
	// GIVEN a ring of 10 users with hybrids and mailboxes
	graph := ringGraph(10)
	spec := testSpec()

	// WHEN a trace is generated
	events, err := Generate(spec, graph)
	require.NoError(t, err)

	// THEN timestamps never decrease and every event refers to a valid host
	require.NoError(t, CheckMonotonic(events))
	maxHost := sim.NodeID(graph.Population() + spec.Mailboxes)
	creates := 0
	for _, ev := range events {
		switch e := ev.(type) {
		case *sim.CreateEvent:
			creates++
			assert.Less(t, e.Time, spec.LastConnTimestamp)
			assert.NotEqual(t, e.From, e.To)
			assert.Less(t, int(e.From), graph.Population())
			assert.Less(t, int(e.To), graph.Population())
			assert.GreaterOrEqual(t, e.Size, spec.MsgSizeMin)
			assert.Less(t, e.Size, spec.MsgSizeMax)
			// Receivers are drawn from the sender's contacts.
			assert.True(t, graph.IsContact(e.From, e.To), "receiver %d is not a contact of %d", e.To, e.From)
		case *sim.ConnectionEvent:
			assert.NotEqual(t, e.A, e.B)
			assert.Less(t, e.A, maxHost)
			assert.Less(t, e.B, maxHost)
		}
	}
	assert.Positive(t, creates)
}

func TestGenerate_NoMessagesDuringFirstNight(t *testing.T) {
	graph := ringGraph(10)
	spec := testSpec()
	spec.Mailboxes = 1

	events, err := Generate(spec, graph)
	require.NoError(t, err)

	// The first night opens with the owner-mailbox link and lasts at least nightMin.
	var nightStart int64 = -1
	for _, ev := range events {
		if c, ok := ev.(*sim.ConnectionEvent); ok && c.Up && (c.A == 10 || c.B == 10) {
			nightStart = c.Time
			break
		}
	}
	require.GreaterOrEqual(t, nightStart, int64(firstNight))

	for _, ev := range events {
		if c, ok := ev.(*sim.CreateEvent); ok {
			inNight := c.Time > nightStart && c.Time < nightStart+nightMin
			assert.False(t, inNight, "message %s created at %d during night", c.MessageID, c.Time)
		}
	}
}

func TestGenerate_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GeneratorSpec)
		graph  *sim.ContactGraph
	}{
		{name: "bad size range", mutate: func(s *GeneratorSpec) { s.MsgSizeMax = 10 }, graph: ringGraph(10)},
		{name: "zero daily messages", mutate: func(s *GeneratorSpec) { s.DailyMsgsPerHost = 0 }, graph: ringGraph(10)},
		{name: "too many hybrids", mutate: func(s *GeneratorSpec) { s.HybridNodes = 11 }, graph: ringGraph(10)},
		{name: "no contacts", mutate: func(s *GeneratorSpec) {}, graph: sim.NewContactGraph(10, nil)},
		{name: "rate too high", mutate: func(s *GeneratorSpec) { s.DailyMsgsPerHost = 100000 }, graph: ringGraph(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			tt.mutate(spec)
			_, err := Generate(spec, tt.graph)
			assert.Error(t, err)
		})
	}
}

func TestLoadGeneratorSpec_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	yaml := `
seed: 3
hybrid_nodes: 2
mailboxes: 1
msg_size_min: 100
msg_size_max: 200
daily_msgs_per_host: 4
only_nodes_with_contacts_send: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	spec, err := LoadGeneratorSpec(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), spec.Seed)
	assert.Equal(t, 2, spec.HybridNodes)
	assert.True(t, spec.OnlyNodesWithContactsSend)
	assert.NoError(t, spec.Validate())
}
