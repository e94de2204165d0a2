package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/dtn-sim/sim"
	"github.com/inference-sim/dtn-sim/sim/social"
	"github.com/inference-sim/dtn-sim/sim/trace"
	"github.com/inference-sim/dtn-sim/sim/workload"
)

var (
	// Engine and host flags
	seed               int64  // Master seed for per-host routing randomness
	simulationHorizon  int64  // Last simulated tick (0 = last event)
	logLevel           string // Log verbosity level
	updateInterval     int64  // Ticks between host updates
	bufferSize         int64  // Per-host buffer capacity in bytes
	transmitSpeed      int64  // Bytes per tick over any link
	messageTTL         int64  // Message lifetime in ticks
	deliveredCacheSize int    // Delivered ids remembered per host
	numHosts           int    // Minimum number of hosts

	// Policy flags
	routingPolicy string
	queueMode     string

	// Inputs
	scenarioPath      string // YAML scenario; flags set on the command line win
	dataset           string
	socialNetworkPath string
	population        int
	eventsPath        string

	// Decision tracing
	traceLevel     string
	summarizeTrace bool
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dtn-sim",
	Short: "Tick-driven simulator for socially aware delay-tolerant routing",
}

// runCmd executes the simulation using parameters from CLI flags and an optional scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a DTN simulation over a connection and message trace",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		sc, err := resolveScenario(cmd.Flags().Changed)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		logrus.Infof("Starting simulation: routing=%s queue=%s dataset=%s population=%d events=%s",
			sc.cfg.Routing, sc.cfg.QueueMode, sc.dataset, sc.population, sc.eventsPath)

		startTime := time.Now()
		s, err := sc.run()
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		s.Metrics.Print(os.Stdout, s.Clock)
		if summarizeTrace {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		logrus.Infof("Simulation complete in %s", time.Since(startTime))
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// scenario is everything `run` needs after flags and the scenario file are merged.
type scenario struct {
	cfg         sim.SimConfig
	dataset     string
	networkPath string
	population  int
	eventsPath  string
	traceLevel  trace.TraceLevel
}

// resolveScenario starts from the defaults, overlays the scenario file if any,
// then overlays every flag for which changed returns true.
func resolveScenario(changed func(string) bool) (*scenario, error) {
	sc := &scenario{cfg: sim.DefaultSimConfig(), dataset: "hyccups"}

	if scenarioPath != "" {
		bundle, err := sim.LoadScenarioBundle(scenarioPath)
		if err != nil {
			return nil, err
		}
		if err := bundle.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", scenarioPath, err)
		}
		bundle.Apply(&sc.cfg)
		if bundle.Social.Dataset != "" {
			sc.dataset = bundle.Social.Dataset
		}
		sc.networkPath = bundle.Social.NetworkPath
		if bundle.Social.Population != nil {
			sc.population = *bundle.Social.Population
		}
		sc.eventsPath = bundle.Trace.EventsPath
		sc.traceLevel = trace.TraceLevel(bundle.Trace.Level)
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"seed", func() { sc.cfg.Seed = seed }},
		{"horizon", func() { sc.cfg.Horizon = simulationHorizon }},
		{"update-interval", func() { sc.cfg.UpdateInterval = updateInterval }},
		{"buffer-size", func() { sc.cfg.BufferSize = bufferSize }},
		{"transmit-speed", func() { sc.cfg.TransmitSpeed = transmitSpeed }},
		{"message-ttl", func() { sc.cfg.MessageTTL = messageTTL }},
		{"delivered-cache-size", func() { sc.cfg.DeliveredCacheSize = deliveredCacheSize }},
		{"num-hosts", func() { sc.cfg.NumHosts = numHosts }},
		{"routing-policy", func() { sc.cfg.Routing = routingPolicy }},
		{"queue-mode", func() { sc.cfg.QueueMode = sim.QueueMode(queueMode) }},
		{"dataset", func() { sc.dataset = dataset }},
		{"social-network", func() { sc.networkPath = socialNetworkPath }},
		{"population", func() { sc.population = population }},
		{"events", func() { sc.eventsPath = eventsPath }},
		{"trace-level", func() { sc.traceLevel = trace.TraceLevel(traceLevel) }},
	}
	for _, o := range overrides {
		if changed(o.flag) {
			o.apply()
		}
	}

	if !social.IsValidDataset(sc.dataset) {
		return nil, fmt.Errorf("unknown dataset %q; valid: %v", sc.dataset, social.DatasetNames())
	}
	if !trace.IsValidTraceLevel(string(sc.traceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", sc.traceLevel)
	}
	if sc.population == 0 && sc.dataset != "" {
		sc.population = social.Datasets[sc.dataset].Population
	}
	if sc.population <= 0 {
		return nil, fmt.Errorf("population must be positive, got %d", sc.population)
	}
	if sc.networkPath == "" {
		sc.networkPath = defaultNetworkPath(sc.dataset)
	}
	if sc.eventsPath == "" {
		return nil, fmt.Errorf("no event trace given (--events or trace.events_path)")
	}
	if err := sc.cfg.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// defaultNetworkPath is where a dataset's social-network listing lives by convention.
func defaultNetworkPath(dataset string) string {
	return filepath.Join("data", dataset, "social_network.txt")
}

// run loads the inputs and runs the simulation to its horizon.
func (sc *scenario) run() (*sim.Simulator, error) {
	network := social.LoadSocialNetwork(sc.networkPath, sc.population)
	events, err := workload.LoadEvents(sc.eventsPath)
	if err != nil {
		return nil, err
	}
	var tr *trace.SimulationTrace
	if sc.traceLevel == trace.TraceLevelDecisions {
		tr = trace.NewSimulationTrace(sc.traceLevel)
	}
	s, err := sim.NewSimulator(sc.cfg, network.Graph, events, tr)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Loaded %d events for %d hosts", len(events), s.NumHosts())
	s.Run()
	return s, nil
}

func printTraceSummary(w io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Transfers Started    : %d\n", summary.TotalTransfers)
	tiers := make([]string, 0, len(summary.TierDistribution))
	for tier := range summary.TierDistribution {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		fmt.Fprintf(w, "  %-18s : %d\n", tier, summary.TierDistribution[tier])
	}
	fmt.Fprintf(w, "Pull Share           : %.4f\n", summary.PullShare)
	fmt.Fprintf(w, "Unique Messages      : %d\n", summary.UniqueMessages)
	fmt.Fprintf(w, "Evictions            : %d\n", summary.Evictions)
	fmt.Fprintf(w, "No Victim            : %d\n", summary.NoVictimCount)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultSimConfig()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&scenarioPath, "config", "", "Path to a YAML scenario file")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for per-host routing randomness")
	runCmd.Flags().Int64Var(&simulationHorizon, "horizon", 0, "Last simulated tick (0 = time of the last event)")
	runCmd.Flags().Int64Var(&updateInterval, "update-interval", defaults.UpdateInterval, "Ticks between host updates")

	// Host resources
	runCmd.Flags().Int64Var(&bufferSize, "buffer-size", defaults.BufferSize, "Per-host buffer capacity in bytes (0 = unbounded)")
	runCmd.Flags().Int64Var(&transmitSpeed, "transmit-speed", defaults.TransmitSpeed, "Bytes per tick over any link")
	runCmd.Flags().Int64Var(&messageTTL, "message-ttl", defaults.MessageTTL, "Message lifetime in ticks (0 = never expires)")
	runCmd.Flags().IntVar(&deliveredCacheSize, "delivered-cache-size", defaults.DeliveredCacheSize, "Delivered message ids remembered per host")
	runCmd.Flags().IntVar(&numHosts, "num-hosts", 0, "Minimum number of hosts (grown to cover every id in the trace)")

	// Policies
	runCmd.Flags().StringVar(&routingPolicy, "routing-policy", defaults.Routing, "Routing policy: contact-tiered, flood, direct-only")
	runCmd.Flags().StringVar(&queueMode, "queue-mode", string(defaults.QueueMode), "Queue mode: fifo, random")

	// Inputs
	runCmd.Flags().StringVar(&dataset, "dataset", "hyccups", "Social dataset: hyccups, office")
	runCmd.Flags().StringVar(&socialNetworkPath, "social-network", "", "Social-network listing (default data/<dataset>/social_network.txt)")
	runCmd.Flags().IntVar(&population, "population", 0, "Number of users (0 = dataset size)")
	runCmd.Flags().StringVar(&eventsPath, "events", "", "Connection and message trace file")

	// Decision trace
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level: none, decisions")
	runCmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Print a summary of the decision trace")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(socialCmd)
}
