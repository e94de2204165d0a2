package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/dtn-sim/sim/trace"
)

// ScenarioBundle holds scenario configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and do not override SimConfig.
// String fields use empty string for "not set".
type ScenarioBundle struct {
	Engine  EngineBundle  `yaml:"engine"`
	Hosts   HostsBundle   `yaml:"hosts"`
	Routing RoutingBundle `yaml:"routing"`
	Social  SocialBundle  `yaml:"social"`
	Trace   TraceBundle   `yaml:"trace"`
}

// EngineBundle holds tick loop configuration.
type EngineBundle struct {
	Horizon        *int64 `yaml:"horizon"`
	UpdateInterval *int64 `yaml:"update_interval"`
	Seed           *int64 `yaml:"seed"`
}

// HostsBundle holds per-host resource configuration.
type HostsBundle struct {
	BufferSize         *int64 `yaml:"buffer_size"`
	TransmitSpeed      *int64 `yaml:"transmit_speed"`
	MessageTTL         *int64 `yaml:"message_ttl"`
	DeliveredCacheSize *int   `yaml:"delivered_cache_size"`
	Count              *int   `yaml:"count"`
}

// RoutingBundle holds routing policy configuration.
type RoutingBundle struct {
	Policy    string `yaml:"policy"`
	QueueMode string `yaml:"queue_mode"`
}

// SocialBundle points at the social dataset.
type SocialBundle struct {
	Dataset       string `yaml:"dataset"`
	NetworkPath   string `yaml:"network_path"`
	InterestsPath string `yaml:"interests_path"`
	Population    *int   `yaml:"population"`
}

// TraceBundle holds the event trace and decision trace settings.
type TraceBundle struct {
	EventsPath string `yaml:"events_path"`
	Level      string `yaml:"level"`
}

// LoadScenarioBundle reads and parses a YAML scenario file.
func LoadScenarioBundle(path string) (*ScenarioBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	var bundle ScenarioBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that all names and parameter ranges in the bundle are valid.
func (b *ScenarioBundle) Validate() error {
	if !IsValidRoutingPolicy(b.Routing.Policy) {
		return fmt.Errorf("unknown routing policy %q", b.Routing.Policy)
	}
	if !IsValidQueueMode(b.Routing.QueueMode) {
		return fmt.Errorf("unknown queue mode %q", b.Routing.QueueMode)
	}
	if !trace.IsValidTraceLevel(b.Trace.Level) {
		return fmt.Errorf("unknown trace level %q", b.Trace.Level)
	}
	if b.Engine.Horizon != nil && *b.Engine.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", *b.Engine.Horizon)
	}
	if b.Engine.UpdateInterval != nil && *b.Engine.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %d", *b.Engine.UpdateInterval)
	}
	if b.Hosts.BufferSize != nil && *b.Hosts.BufferSize < 0 {
		return fmt.Errorf("buffer_size must be non-negative, got %d", *b.Hosts.BufferSize)
	}
	if b.Hosts.TransmitSpeed != nil && *b.Hosts.TransmitSpeed <= 0 {
		return fmt.Errorf("transmit_speed must be positive, got %d", *b.Hosts.TransmitSpeed)
	}
	if b.Hosts.MessageTTL != nil && *b.Hosts.MessageTTL < 0 {
		return fmt.Errorf("message_ttl must be non-negative, got %d", *b.Hosts.MessageTTL)
	}
	if b.Hosts.DeliveredCacheSize != nil && *b.Hosts.DeliveredCacheSize <= 0 {
		return fmt.Errorf("delivered_cache_size must be positive, got %d", *b.Hosts.DeliveredCacheSize)
	}
	if b.Hosts.Count != nil && *b.Hosts.Count < 0 {
		return fmt.Errorf("hosts count must be non-negative, got %d", *b.Hosts.Count)
	}
	if b.Social.Population != nil && *b.Social.Population < 0 {
		return fmt.Errorf("population must be non-negative, got %d", *b.Social.Population)
	}
	return nil
}

// Apply overlays the fields set in the bundle onto cfg.
func (b *ScenarioBundle) Apply(cfg *SimConfig) {
	if b.Engine.Horizon != nil {
		cfg.Horizon = *b.Engine.Horizon
	}
	if b.Engine.UpdateInterval != nil {
		cfg.UpdateInterval = *b.Engine.UpdateInterval
	}
	if b.Engine.Seed != nil {
		cfg.Seed = *b.Engine.Seed
	}
	if b.Hosts.BufferSize != nil {
		cfg.BufferSize = *b.Hosts.BufferSize
	}
	if b.Hosts.TransmitSpeed != nil {
		cfg.TransmitSpeed = *b.Hosts.TransmitSpeed
	}
	if b.Hosts.MessageTTL != nil {
		cfg.MessageTTL = *b.Hosts.MessageTTL
	}
	if b.Hosts.DeliveredCacheSize != nil {
		cfg.DeliveredCacheSize = *b.Hosts.DeliveredCacheSize
	}
	if b.Hosts.Count != nil {
		cfg.NumHosts = *b.Hosts.Count
	}
	if b.Routing.Policy != "" {
		cfg.Routing = b.Routing.Policy
	}
	if b.Routing.QueueMode != "" {
		cfg.QueueMode = QueueMode(b.Routing.QueueMode)
	}
}
