package social

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/dtn-sim/sim"
)

// ParseSocialNetwork reads a social-network listing for population users.
//
// Each line is "<user>,<contact>,<contact>,..." with 1-based ids. Edges are
// recorded only in the direction listed. A line with a non-numeric or
// out-of-range id leaves its user with no contacts and is reported; a read
// error stops parsing and keeps what was read so far.
func ParseSocialNetwork(r io.Reader, population int) *Network {
	adjacency := make(map[sim.NodeID][]sim.NodeID)
	var diags []Diagnostic

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tokens := strings.Split(strings.TrimRight(line, ","), ",")

		user, err := parseID(tokens[0], population)
		if err != nil {
			diags = append(diags, Diagnostic{Line: lineNo, User: -1, Reason: fmt.Sprintf("user id: %v", err)})
			continue
		}

		contacts := make([]sim.NodeID, 0, len(tokens)-1)
		malformed := false
		for _, tok := range tokens[1:] {
			c, err := parseID(tok, population)
			if err != nil {
				diags = append(diags, Diagnostic{Line: lineNo, User: user, Reason: fmt.Sprintf("contact id: %v", err)})
				malformed = true
				break
			}
			contacts = append(contacts, sim.NodeID(c))
		}
		if malformed {
			adjacency[sim.NodeID(user)] = nil
			continue
		}
		adjacency[sim.NodeID(user)] = append(adjacency[sim.NodeID(user)], contacts...)
	}
	if err := sc.Err(); err != nil {
		diags = append(diags, Diagnostic{Line: lineNo + 1, User: -1, Reason: fmt.Sprintf("read: %v", err)})
	}

	return &Network{
		Graph:       sim.NewContactGraph(population, adjacency),
		Diagnostics: diags,
	}
}

// parseID converts a 1-based id token into a 0-based id within [0, limit).
func parseID(tok string, limit int) (int, error) {
	tok = strings.TrimSpace(tok)
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", tok)
	}
	id := v - 1
	if id < 0 || id >= limit {
		return 0, fmt.Errorf("id %d out of range [1, %d]", v, limit)
	}
	return id, nil
}

// LoadSocialNetwork parses the listing at path. An unreadable file is logged
// and yields a graph in which every user has no contacts.
func LoadSocialNetwork(path string, population int) *Network {
	f, err := os.Open(path)
	if err != nil {
		logrus.Warnf("social network: %v; continuing with no contacts", err)
		return &Network{
			Graph:       sim.NewContactGraph(population, nil),
			Diagnostics: []Diagnostic{{Line: 0, User: -1, Reason: err.Error()}},
		}
	}
	defer f.Close()

	n := ParseSocialNetwork(f, population)
	for _, d := range n.Diagnostics {
		logrus.Warnf("social network %s: %s", path, d)
	}
	logrus.Infof("Loaded social network %s: %d users, %d edges", path, population, n.Graph.EdgeCount())
	return n
}

// Interests maps users to interest categories and back.
type Interests struct {
	ByUser      [][]int        // user -> interests, listing order
	ByInterest  [][]sim.NodeID // interest -> users, listing order
	Diagnostics []Diagnostic
}

// newInterests creates empty tables for the given sizes.
func newInterests(population, interestCount int) *Interests {
	in := &Interests{
		ByUser:     make([][]int, population),
		ByInterest: make([][]sim.NodeID, interestCount),
	}
	return in
}

// Of returns user n's interests, or nil for an unknown user.
func (in *Interests) Of(n sim.NodeID) []int {
	if n < 0 || int(n) >= len(in.ByUser) {
		return nil
	}
	return in.ByUser[n]
}

// Common returns the interests shared by a and b, in a's listing order.
func (in *Interests) Common(a, b sim.NodeID) []int {
	theirs := make(map[int]struct{})
	for _, i := range in.Of(b) {
		theirs[i] = struct{}{}
	}
	var out []int
	for _, i := range in.Of(a) {
		if _, ok := theirs[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// ParseInterests reads a users-and-interests listing.
//
// Each line is "<user> <interest>,<interest>,..." with 1-based ids; an
// interest field of "0" or a missing field means no interests. A malformed
// line leaves its user with no interests and is reported.
func ParseInterests(r io.Reader, population, interestCount int) *Interests {
	in := newInterests(population, interestCount)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		user, err := parseID(fields[0], population)
		if err != nil {
			in.Diagnostics = append(in.Diagnostics, Diagnostic{Line: lineNo, User: -1, Reason: fmt.Sprintf("user id: %v", err)})
			continue
		}
		if len(fields) < 2 || fields[1] == "0" {
			continue
		}

		var parsed []int
		for _, tok := range strings.Split(fields[1], ",") {
			id, err := parseID(tok, interestCount)
			if err != nil {
				in.Diagnostics = append(in.Diagnostics, Diagnostic{Line: lineNo, User: user, Reason: fmt.Sprintf("interest id: %v", err)})
				parsed = nil
				break
			}
			parsed = append(parsed, id)
		}
		for _, id := range parsed {
			in.ByUser[user] = append(in.ByUser[user], id)
			in.ByInterest[id] = append(in.ByInterest[id], sim.NodeID(user))
		}
	}
	if err := sc.Err(); err != nil {
		in.Diagnostics = append(in.Diagnostics, Diagnostic{Line: lineNo + 1, User: -1, Reason: fmt.Sprintf("read: %v", err)})
	}
	return in
}

// LoadInterests parses the listing at path. An unreadable file is logged and
// yields empty tables.
func LoadInterests(path string, population, interestCount int) *Interests {
	f, err := os.Open(path)
	if err != nil {
		logrus.Warnf("interests: %v; continuing with no interests", err)
		in := newInterests(population, interestCount)
		in.Diagnostics = []Diagnostic{{Line: 0, User: -1, Reason: err.Error()}}
		return in
	}
	defer f.Close()

	in := ParseInterests(f, population, interestCount)
	for _, d := range in.Diagnostics {
		logrus.Warnf("interests %s: %s", path, d)
	}
	return in
}
