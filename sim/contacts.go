package sim

import "sort"

// ContactLookup answers whether b is a social contact of a.
//
// Implementations must be pure and safe for concurrent reads. The relation is
// directional: IsContact(a, b) and IsContact(b, a) may differ, and callers
// must not assume symmetry.
type ContactLookup interface {
	IsContact(a, b NodeID) bool
}

// ContactGraph is the immutable contact relation of a user population.
// It is built once from the social-network listing and then only read.
// Any id outside [0, population) is a contact of everyone, in both argument
// positions; such ids model always-reachable infrastructure hosts.
type ContactGraph struct {
	population int
	contacts   []map[NodeID]struct{} // user -> contacts as recorded in the listing
	ordered    [][]NodeID            // user -> contacts in listing order
}

// NewContactGraph builds a graph for population users from the given
// adjacency. Edges are stored only in the direction given; entries whose user
// or contact lies outside [0, population) are ignored, as are duplicates.
func NewContactGraph(population int, adjacency map[NodeID][]NodeID) *ContactGraph {
	if population < 0 {
		population = 0
	}
	g := &ContactGraph{
		population: population,
		contacts:   make([]map[NodeID]struct{}, population),
		ordered:    make([][]NodeID, population),
	}
	for i := range g.contacts {
		g.contacts[i] = make(map[NodeID]struct{})
	}
	users := make([]NodeID, 0, len(adjacency))
	for u := range adjacency {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	for _, u := range users {
		if !g.isUser(u) {
			continue
		}
		for _, c := range adjacency[u] {
			if !g.isUser(c) {
				continue
			}
			if _, dup := g.contacts[u][c]; dup {
				continue
			}
			g.contacts[u][c] = struct{}{}
			g.ordered[u] = append(g.ordered[u], c)
		}
	}
	return g
}

func (g *ContactGraph) isUser(n NodeID) bool {
	return n >= 0 && int(n) < g.population
}

// IsContact implements ContactLookup.
func (g *ContactGraph) IsContact(a, b NodeID) bool {
	if g.IsInfrastructure(a) || g.IsInfrastructure(b) {
		return true
	}
	_, ok := g.contacts[a][b]
	return ok
}

// IsInfrastructure reports whether n lies outside the user population.
func (g *ContactGraph) IsInfrastructure(n NodeID) bool {
	return !g.isUser(n)
}

// Population returns the number of users.
func (g *ContactGraph) Population() int {
	return g.population
}

// Contacts returns a copy of n's recorded contacts in listing order.
// Infrastructure ids have no recorded contacts.
func (g *ContactGraph) Contacts(n NodeID) []NodeID {
	if !g.isUser(n) {
		return nil
	}
	out := make([]NodeID, len(g.ordered[n]))
	copy(out, g.ordered[n])
	return out
}

// HasContacts reports whether user n has at least one recorded contact.
func (g *ContactGraph) HasContacts(n NodeID) bool {
	return g.isUser(n) && len(g.ordered[n]) > 0
}

// UsersWithContacts returns the users that have at least one recorded contact, ascending.
func (g *ContactGraph) UsersWithContacts() []NodeID {
	var out []NodeID
	for u := 0; u < g.population; u++ {
		if len(g.ordered[u]) > 0 {
			out = append(out, NodeID(u))
		}
	}
	return out
}

// EdgeCount returns the number of recorded directional edges.
func (g *ContactGraph) EdgeCount() int {
	n := 0
	for _, cs := range g.ordered {
		n += len(cs)
	}
	return n
}
