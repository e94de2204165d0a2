// Package social parses the static social inputs of a DTN scenario: the
// social-network listing that becomes a sim.ContactGraph, and the optional
// user-interests listing.
//
// Both formats are line oriented with 1-based ids that are normalized to
// 0-based. Parsing never fails as a whole: a malformed line is reported as a
// Diagnostic, the affected user keeps an empty set, and later lines are parsed
// normally.
package social

import (
	"fmt"
	"sort"

	"github.com/inference-sim/dtn-sim/sim"
)

// Dataset describes the size of a known social dataset.
type Dataset struct {
	Name       string
	Population int // number of users; ids at or above are infrastructure
	Interests  int // number of interest categories
}

// Datasets are the supported social datasets by name.
var Datasets = map[string]Dataset{
	"hyccups": {Name: "hyccups", Population: 73, Interests: 5},
	"office":  {Name: "office", Population: 93, Interests: 12},
}

// IsValidDataset returns true if name is a known dataset or empty.
func IsValidDataset(name string) bool {
	if name == "" {
		return true
	}
	_, ok := Datasets[name]
	return ok
}

// DatasetNames returns the known dataset names, sorted.
func DatasetNames() []string {
	names := make([]string, 0, len(Datasets))
	for n := range Datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Diagnostic describes one listing line that could not be used.
type Diagnostic struct {
	Line   int    // 1-based line number
	User   int    // 0-based user id, or -1 if it could not be determined
	Reason string
}

func (d Diagnostic) String() string {
	if d.User < 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	}
	return fmt.Sprintf("line %d (user %d): %s", d.Line, d.User, d.Reason)
}

// Network is the parsed social-network listing.
type Network struct {
	Graph       *sim.ContactGraph
	Diagnostics []Diagnostic
}
