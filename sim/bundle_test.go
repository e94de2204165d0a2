package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarioBundle_ValidYAML(t *testing.T) {
	yaml := `
engine:
  horizon: 86400
  seed: 9
hosts:
  buffer_size: 5000000
  message_ttl: 0
  count: 80
routing:
  policy: flood
  queue_mode: random
social:
  dataset: office
  network_path: data/office/social_network.txt
trace:
  events_path: data/office/events.txt
  level: decisions
`
	bundle, err := LoadScenarioBundle(writeTempYAML(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bundle.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if bundle.Engine.Horizon == nil || *bundle.Engine.Horizon != 86400 {
		t.Errorf("expected horizon 86400, got %v", bundle.Engine.Horizon)
	}
	if bundle.Engine.UpdateInterval != nil {
		t.Errorf("expected update_interval unset, got %v", *bundle.Engine.UpdateInterval)
	}
	// message_ttl: 0 is explicitly set, not "unset"
	if bundle.Hosts.MessageTTL == nil || *bundle.Hosts.MessageTTL != 0 {
		t.Errorf("expected explicit message_ttl 0, got %v", bundle.Hosts.MessageTTL)
	}
	if bundle.Routing.Policy != "flood" {
		t.Errorf("expected routing policy 'flood', got %q", bundle.Routing.Policy)
	}
	if bundle.Social.Dataset != "office" {
		t.Errorf("expected dataset 'office', got %q", bundle.Social.Dataset)
	}
	if bundle.Trace.Level != "decisions" {
		t.Errorf("expected trace level 'decisions', got %q", bundle.Trace.Level)
	}
}

func TestScenarioBundle_Apply_OnlyOverridesSetFields(t *testing.T) {
	// GIVEN defaults and a bundle that sets seed, count and routing
	cfg := DefaultSimConfig()
	seed := int64(5)
	count := 12
	bundle := &ScenarioBundle{
		Engine:  EngineBundle{Seed: &seed},
		Hosts:   HostsBundle{Count: &count},
		Routing: RoutingBundle{Policy: "direct-only"},
	}

	// WHEN applied
	bundle.Apply(&cfg)

	// THEN only those fields change
	defaults := DefaultSimConfig()
	assert.Equal(t, int64(5), cfg.Seed)
	assert.Equal(t, 12, cfg.NumHosts)
	assert.Equal(t, "direct-only", cfg.Routing)
	assert.Equal(t, defaults.BufferSize, cfg.BufferSize)
	assert.Equal(t, defaults.QueueMode, cfg.QueueMode)
	assert.Equal(t, defaults.UpdateInterval, cfg.UpdateInterval)
	assert.NoError(t, cfg.Validate())
}

func TestScenarioBundle_Validate_Rejects(t *testing.T) {
	neg := int64(-1)
	zero := int64(0)
	zeroInt := 0
	tests := []struct {
		name   string
		bundle ScenarioBundle
	}{
		{name: "unknown routing", bundle: ScenarioBundle{Routing: RoutingBundle{Policy: "prophet"}}},
		{name: "unknown queue mode", bundle: ScenarioBundle{Routing: RoutingBundle{QueueMode: "lifo"}}},
		{name: "unknown trace level", bundle: ScenarioBundle{Trace: TraceBundle{Level: "verbose"}}},
		{name: "negative horizon", bundle: ScenarioBundle{Engine: EngineBundle{Horizon: &neg}}},
		{name: "zero interval", bundle: ScenarioBundle{Engine: EngineBundle{UpdateInterval: &zero}}},
		{name: "zero speed", bundle: ScenarioBundle{Hosts: HostsBundle{TransmitSpeed: &zero}}},
		{name: "negative buffer", bundle: ScenarioBundle{Hosts: HostsBundle{BufferSize: &neg}}},
		{name: "zero delivered cache", bundle: ScenarioBundle{Hosts: HostsBundle{DeliveredCacheSize: &zeroInt}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.bundle.Validate())
		})
	}
}

func TestLoadScenarioBundle_Errors(t *testing.T) {
	_, err := LoadScenarioBundle(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadScenarioBundle(writeTempYAML(t, "engine: [unclosed"))
	require.Error(t, err)
}

func TestSimConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultSimConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{name: "zero interval", mutate: func(c *SimConfig) { c.UpdateInterval = 0 }},
		{name: "zero speed", mutate: func(c *SimConfig) { c.TransmitSpeed = 0 }},
		{name: "negative ttl", mutate: func(c *SimConfig) { c.MessageTTL = -1 }},
		{name: "zero cache", mutate: func(c *SimConfig) { c.DeliveredCacheSize = 0 }},
		{name: "unknown routing", mutate: func(c *SimConfig) { c.Routing = "spray" }},
		{name: "unknown queue mode", mutate: func(c *SimConfig) { c.QueueMode = "lifo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
