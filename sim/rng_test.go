package sim

import (
	"math/rand"
	"testing"
)

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same seed+name produces same sequence
	rng1 := NewPartitionedRNG(42)
	rng2 := NewPartitionedRNG(42)

	for i := 0; i < 3; i++ {
		a := rng1.ForSubsystem(SubsystemHost(3)).Int63()
		b := rng2.ForSubsystem(SubsystemHost(3)).Int63()
		if a != b {
			t.Errorf("value %d: got %d and %d, want identical", i, a, b)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// BDD: Drawing from host 1 doesn't affect host 2
	rngA := NewPartitionedRNG(42)
	rngB := NewPartitionedRNG(42)

	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemHost(1)).Float64()
	}
	got := rngA.ForSubsystem(SubsystemHost(2)).Float64()
	want := rngB.ForSubsystem(SubsystemHost(2)).Float64()

	if got != want {
		t.Errorf("host 2 stream affected by host 1 draws: got %v, want %v", got, want)
	}
}

func TestPartitionedRNG_WorkloadUsesMasterSeed(t *testing.T) {
	got := NewPartitionedRNG(7).ForSubsystem(SubsystemWorkload).Int63()
	want := rand.New(rand.NewSource(7)).Int63()
	if got != want {
		t.Errorf("workload stream: got %d, want %d", got, want)
	}
}

func TestPartitionedRNG_Caching(t *testing.T) {
	p := NewPartitionedRNG(1)
	if p.ForSubsystem("x") != p.ForSubsystem("x") {
		t.Error("expected the same *rand.Rand for repeated subsystem lookups")
	}
	if p.Seed() != 1 {
		t.Errorf("Seed() = %d, want 1", p.Seed())
	}
}

func TestSubsystemHost_DistinctNames(t *testing.T) {
	if SubsystemHost(1) == SubsystemHost(11) {
		t.Error("expected distinct subsystem names")
	}
	if SubsystemHost(4) != "host_4" {
		t.Errorf("SubsystemHost(4) = %q", SubsystemHost(4))
	}
}
