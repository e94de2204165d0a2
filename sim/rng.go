package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SubsystemWorkload is the RNG subsystem for synthetic trace generation.
// It uses the master seed directly so a generator seed reproduces the same trace.
const SubsystemWorkload = "workload"

// SubsystemHost returns the subsystem name for host n's routing decisions.
// Each host draws from its own stream so hosts never share mutable RNG state.
func SubsystemHost(n NodeID) string {
	return fmt.Sprintf("host_%d", n)
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - SubsystemWorkload: master seed
//   - every other subsystem: master seed XOR fnv1a64(subsystem name)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derived := p.seed
	if name != SubsystemWorkload {
		derived = p.seed ^ fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
