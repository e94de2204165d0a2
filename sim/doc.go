// Package sim provides the tick-driven simulation kernel for opportunistic,
// delay-tolerant networking (DTN) with social-graph-aware routing.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - message.go, buffer.go: Message and the per-host bounded MessageBuffer
//   - connection.go: transient pairwise links and the single in-flight Transfer
//   - routing.go: RoutingPolicy variants (contact-tiered, flood, direct-only)
//   - eviction.go: EvictionPolicy variants used when a buffer must free space
//   - simulator.go: the tick loop that applies trace events and drives every Host
//
// # Architecture
//
// The sim package defines the policy interfaces and the engine; inputs live in
// sub-packages:
//   - sim/social/: social-network and interests listing parsers (build a ContactGraph)
//   - sim/workload/: external event trace reader/writer and synthetic trace generator
//   - sim/trace/: decision trace recording
//
// # Key Interfaces
//
//   - ContactLookup: directional "is b a social contact of a" query
//   - RoutingPolicy: pick at most one transfer per host per tick
//   - EvictionPolicy: pick the buffered message to drop when space is needed
//   - Node: the read/act view of a host handed to policies
//
// Each Host owns its own policy instances. The ContactGraph is immutable and
// shared read-only across hosts.
package sim
