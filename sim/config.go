package sim

import "fmt"

// EngineConfig groups the tick loop parameters.
type EngineConfig struct {
	Horizon        int64 // last simulated tick (0 = last event, then drain in-flight transfers)
	UpdateInterval int64 // ticks between host updates (must be > 0)
	Seed           int64 // master seed for PartitionedRNG
}

// HostConfig groups per-host resources. Every host gets the same values.
type HostConfig struct {
	BufferSize         int64 // bytes (0 = unbounded)
	TransmitSpeed      int64 // bytes per tick over any link (must be > 0)
	MessageTTL         int64 // ticks (0 = never expires)
	DeliveredCacheSize int   // ids remembered per host for already-delivered checks (must be > 0)
	NumHosts           int   // minimum number of hosts; grown to cover every id in the trace
}

// PolicyConfig groups routing policy selection.
type PolicyConfig struct {
	Routing   string    // "contact-tiered" (default), "flood" or "direct-only"
	QueueMode QueueMode // "fifo" (default) or "random"
}

// SimConfig bundles everything NewSimulator needs besides inputs.
type SimConfig struct {
	EngineConfig
	HostConfig
	PolicyConfig
}

// DefaultSimConfig returns the defaults used by the CLI.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		EngineConfig: EngineConfig{UpdateInterval: 1, Seed: 42},
		HostConfig: HostConfig{
			BufferSize:         20_000_000,
			TransmitSpeed:      250_000,
			DeliveredCacheSize: 4096,
		},
		PolicyConfig: PolicyConfig{Routing: "contact-tiered", QueueMode: QueueModeFIFO},
	}
}

// Validate checks names and ranges.
func (c SimConfig) Validate() error {
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", c.Horizon)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be positive, got %d", c.UpdateInterval)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer size must be non-negative, got %d", c.BufferSize)
	}
	if c.TransmitSpeed <= 0 {
		return fmt.Errorf("transmit speed must be positive, got %d", c.TransmitSpeed)
	}
	if c.MessageTTL < 0 {
		return fmt.Errorf("message ttl must be non-negative, got %d", c.MessageTTL)
	}
	if c.DeliveredCacheSize <= 0 {
		return fmt.Errorf("delivered cache size must be positive, got %d", c.DeliveredCacheSize)
	}
	if c.NumHosts < 0 {
		return fmt.Errorf("num hosts must be non-negative, got %d", c.NumHosts)
	}
	if !IsValidRoutingPolicy(c.Routing) {
		return fmt.Errorf("unknown routing policy %q", c.Routing)
	}
	if !IsValidQueueMode(string(c.QueueMode)) {
		return fmt.Errorf("unknown queue mode %q", c.QueueMode)
	}
	return nil
}
