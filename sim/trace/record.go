// Package trace provides decision-trace recording for routing policy analysis.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// TransferRecord captures a single transfer started by a routing policy.
type TransferRecord struct {
	Clock     int64
	Node      int    // host whose policy made the decision
	Peer      int    // other end of the connection
	MessageID string
	Tier      string // direct, contact-origin, contact-relay, flood
	Direction string // push or pull
	Reason    string
}

// EvictionRecord captures one eviction-victim selection.
type EvictionRecord struct {
	Clock     int64
	Node      int
	MessageID string // empty when no victim was found
	Found     bool
}
