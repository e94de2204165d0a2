package workload

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/dtn-sim/sim"
)

const (
	secondsPerDay = 86400
	// dayWindow is the part of each day during which messages are created.
	dayWindow = 17 * 60 * 60
	// firstNight is when the first night starts, measured from time 0.
	firstNight = 21600
	// Night lasts between nightMin and nightMin+nightJitter seconds.
	nightMin    = 21600
	nightJitter = 7200

	// DefaultLastConnTimestamp is the end of the looped HYCCUPS connection trace.
	DefaultLastConnTimestamp = 14106341
)

// GeneratorSpec configures synthetic trace generation, loadable from YAML.
type GeneratorSpec struct {
	Seed             int64 `yaml:"seed"`
	HybridNodes      int   `yaml:"hybrid_nodes"`        // users connected to their hybrid contacts for the whole run
	Mailboxes        int   `yaml:"mailboxes"`           // infrastructure hosts owned by users
	MsgSizeMin       int64 `yaml:"msg_size_min"`        // bytes, inclusive
	MsgSizeMax       int64 `yaml:"msg_size_max"`        // bytes, exclusive unless equal to min
	DailyMsgsPerHost int   `yaml:"daily_msgs_per_host"` // messages per user per day
	// OnlyNodesWithContactsSend restricts senders to users with at least one contact.
	OnlyNodesWithContactsSend bool  `yaml:"only_nodes_with_contacts_send"`
	LastConnTimestamp         int64 `yaml:"last_conn_timestamp"` // end of the generated trace (0 = default)
}

// LoadGeneratorSpec reads a YAML generator spec.
func LoadGeneratorSpec(path string) (*GeneratorSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "reading generator spec")
	}
	var spec GeneratorSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, oops.Wrapf(err, "parsing generator spec")
	}
	return &spec, nil
}

// Validate checks parameter ranges that do not depend on the social graph.
func (s *GeneratorSpec) Validate() error {
	if s.HybridNodes < 0 {
		return oops.Errorf("hybrid_nodes must be non-negative, got %d", s.HybridNodes)
	}
	if s.Mailboxes < 0 {
		return oops.Errorf("mailboxes must be non-negative, got %d", s.Mailboxes)
	}
	if s.MsgSizeMin <= 0 || s.MsgSizeMax < s.MsgSizeMin {
		return oops.Errorf("message size range [%d, %d) is invalid", s.MsgSizeMin, s.MsgSizeMax)
	}
	if s.DailyMsgsPerHost <= 0 {
		return oops.Errorf("daily_msgs_per_host must be positive, got %d", s.DailyMsgsPerHost)
	}
	if s.LastConnTimestamp < 0 {
		return oops.Errorf("last_conn_timestamp must be non-negative, got %d", s.LastConnTimestamp)
	}
	return nil
}

// generator holds the state of one Generate call.
type generator struct {
	spec   *GeneratorSpec
	graph  *sim.ContactGraph
	rng    *rand.Rand
	end    int64
	events []sim.Event

	withContacts []sim.NodeID
	owners       []sim.NodeID // mailbox index -> owning user
	msgCount     int
}

// Generate creates a deterministic event trace for the users of graph.
//
// Hybrid nodes are distinct users with contacts; every pair of them that are
// contacts stays connected for the whole trace. Each mailbox is owned by a
// user with contacts and gets host id population+index. Mailboxes whose
// owners are contacts stay connected for the whole trace, and each mailbox is
// connected to its owner during every night. Messages are only created during
// the day; receivers are drawn from the sender's contacts when it has any.
//
// The returned events are sorted by timestamp.
func Generate(spec *GeneratorSpec, graph *sim.ContactGraph) ([]sim.Event, error) {
	if err := spec.Validate(); err != nil {
		return nil, oops.Wrapf(err, "invalid generator spec")
	}
	population := graph.Population()
	if population < 2 {
		return nil, oops.Errorf("population must be at least 2, got %d", population)
	}

	g := &generator{
		spec:         spec,
		graph:        graph,
		rng:          sim.NewPartitionedRNG(spec.Seed).ForSubsystem(sim.SubsystemWorkload),
		end:          spec.LastConnTimestamp,
		withContacts: graph.UsersWithContacts(),
	}
	if g.end == 0 {
		g.end = DefaultLastConnTimestamp
	}
	needContacts := spec.HybridNodes > 0 || spec.Mailboxes > 0 || spec.OnlyNodesWithContactsSend
	if needContacts && len(g.withContacts) == 0 {
		return nil, oops.Errorf("no user has contacts")
	}
	if spec.HybridNodes > len(g.withContacts) {
		return nil, oops.Errorf("hybrid_nodes %d exceeds the %d users with contacts", spec.HybridNodes, len(g.withContacts))
	}

	step := dayWindow / (population * spec.DailyMsgsPerHost)
	threshold := step / 5
	if threshold < 1 {
		return nil, oops.Errorf("daily_msgs_per_host %d too high for %d users", spec.DailyMsgsPerHost, population)
	}

	g.connectHybridNodes()
	g.connectMailboxes()
	g.createMessages(int64(step-threshold), int64(step+threshold))

	SortEvents(g.events)
	return g.events, nil
}

// connectHybridNodes picks distinct hybrid users and links contact pairs for the whole trace.
func (g *generator) connectHybridNodes() {
	if g.spec.HybridNodes == 0 {
		return
	}
	perm := g.rng.Perm(len(g.withContacts))
	hybrids := make([]sim.NodeID, g.spec.HybridNodes)
	for i := range hybrids {
		hybrids[i] = g.withContacts[perm[i]]
	}
	for i := 0; i < len(hybrids); i++ {
		for j := i + 1; j < len(hybrids); j++ {
			if g.graph.IsContact(hybrids[i], hybrids[j]) {
				g.link(0, g.end, hybrids[i], hybrids[j])
			}
		}
	}
}

// connectMailboxes assigns owners and links mailboxes whose owners are contacts.
func (g *generator) connectMailboxes() {
	if g.spec.Mailboxes == 0 {
		return
	}
	population := g.graph.Population()
	g.owners = make([]sim.NodeID, g.spec.Mailboxes)
	for i := range g.owners {
		g.owners[i] = g.withContacts[g.rng.Intn(len(g.withContacts))]
	}
	for i := 0; i < len(g.owners); i++ {
		for j := i + 1; j < len(g.owners); j++ {
			if g.graph.IsContact(g.owners[i], g.owners[j]) {
				g.link(0, g.end, sim.NodeID(population+i), sim.NodeID(population+j))
			}
		}
	}
}

// createMessages walks time in jittered steps of [stepMin, stepMax), creating
// one message per step and skipping nights.
func (g *generator) createMessages(stepMin, stepMax int64) {
	population := g.graph.Population()
	nextSleep := int64(firstNight)
	nights := int64(0)

	for t := int64(0); t < g.end; t += g.rng.Int63n(stepMax-stepMin) + stepMin {
		sender := g.pickSender()
		g.msgCount++
		g.events = append(g.events, &sim.CreateEvent{
			Time:      t,
			MessageID: fmt.Sprintf("M%d", g.msgCount),
			From:      sender,
			To:        g.pickReceiver(sender),
			Size:      g.pickSize(),
		})

		if t > nextSleep {
			sleep := g.rng.Int63n(nightJitter) + nightMin
			for i, owner := range g.owners {
				g.link(t, t+sleep, owner, sim.NodeID(population+i))
			}
			t += sleep
			nights++
			nextSleep = firstNight + nights*secondsPerDay
		}
	}
}

func (g *generator) pickSender() sim.NodeID {
	if g.spec.OnlyNodesWithContactsSend {
		return g.withContacts[g.rng.Intn(len(g.withContacts))]
	}
	return sim.NodeID(g.rng.Intn(g.graph.Population()))
}

// pickReceiver draws from the sender's contacts, or any other user if it has none.
func (g *generator) pickReceiver(sender sim.NodeID) sim.NodeID {
	if contacts := g.graph.Contacts(sender); len(contacts) > 0 {
		if r := contacts[g.rng.Intn(len(contacts))]; r != sender {
			return r
		}
	}
	for {
		r := sim.NodeID(g.rng.Intn(g.graph.Population()))
		if r != sender {
			return r
		}
	}
}

func (g *generator) pickSize() int64 {
	if g.spec.MsgSizeMax == g.spec.MsgSizeMin {
		return g.spec.MsgSizeMin
	}
	return g.rng.Int63n(g.spec.MsgSizeMax-g.spec.MsgSizeMin) + g.spec.MsgSizeMin
}

func (g *generator) link(up, down int64, a, b sim.NodeID) {
	g.events = append(g.events,
		&sim.ConnectionEvent{Time: up, A: a, B: b, Up: true},
		&sim.ConnectionEvent{Time: down, A: a, B: b, Up: false},
	)
}
