package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/dtn-sim/sim"
	"github.com/inference-sim/dtn-sim/sim/social"
	"github.com/inference-sim/dtn-sim/sim/workload"
)

var (
	genSpecPath          string
	genSeed              int64
	genHybridNodes       int
	genMailboxes         int
	genMsgSizeMin        int64
	genMsgSizeMax        int64
	genDailyMsgs         int
	genOnlyWithContacts  bool
	genLastConnTimestamp int64
	genDataset           string
	genNetworkPath       string
	genOutPath           string
)

// generateCmd writes a synthetic message trace (plus hybrid and mailbox links) for a social dataset
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate message creation and hybrid/mailbox link events for a social dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		spec, err := resolveGeneratorSpec(cmd.Flags().Changed)
		if err != nil {
			logrus.Fatalf("Invalid generator spec: %v", err)
		}
		if !social.IsValidDataset(genDataset) || genDataset == "" {
			logrus.Fatalf("Unknown dataset %q; valid: %v", genDataset, social.DatasetNames())
		}
		path := genNetworkPath
		if path == "" {
			path = defaultNetworkPath(genDataset)
		}
		network := social.LoadSocialNetwork(path, social.Datasets[genDataset].Population)

		n, err := writeTraceFile(genOutPath, spec, network.Graph)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
		logrus.Infof("Wrote %d events", n)
	},
}

// writeTraceFile generates into path, or stdout when path is empty or "-".
// A file is closed before returning and its close error is reported.
func writeTraceFile(path string, spec *workload.GeneratorSpec, graph *sim.ContactGraph) (n int, err error) {
	if path == "" || path == "-" {
		return generateTrace(os.Stdout, spec, graph)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	n, err = generateTrace(f, spec, graph)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return n, err
}

// resolveGeneratorSpec loads --spec if given and overlays changed flags.
func resolveGeneratorSpec(changed func(string) bool) (*workload.GeneratorSpec, error) {
	spec := &workload.GeneratorSpec{
		Seed:                      genSeed,
		HybridNodes:               genHybridNodes,
		Mailboxes:                 genMailboxes,
		MsgSizeMin:                genMsgSizeMin,
		MsgSizeMax:                genMsgSizeMax,
		DailyMsgsPerHost:          genDailyMsgs,
		OnlyNodesWithContactsSend: genOnlyWithContacts,
		LastConnTimestamp:         genLastConnTimestamp,
	}
	if genSpecPath != "" {
		loaded, err := workload.LoadGeneratorSpec(genSpecPath)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"seed", func() { spec.Seed = genSeed }},
		{"hybrid-nodes", func() { spec.HybridNodes = genHybridNodes }},
		{"mailboxes", func() { spec.Mailboxes = genMailboxes }},
		{"msg-size-min", func() { spec.MsgSizeMin = genMsgSizeMin }},
		{"msg-size-max", func() { spec.MsgSizeMax = genMsgSizeMax }},
		{"daily-msgs", func() { spec.DailyMsgsPerHost = genDailyMsgs }},
		{"only-with-contacts", func() { spec.OnlyNodesWithContactsSend = genOnlyWithContacts }},
		{"last-conn-timestamp", func() { spec.LastConnTimestamp = genLastConnTimestamp }},
	}
	for _, o := range overrides {
		if changed(o.flag) {
			o.apply()
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// generateTrace runs the generator and writes the events, returning how many were written.
func generateTrace(w io.Writer, spec *workload.GeneratorSpec, graph *sim.ContactGraph) (int, error) {
	events, err := workload.Generate(spec, graph)
	if err != nil {
		return 0, err
	}
	if err := workload.WriteEvents(w, events); err != nil {
		return 0, fmt.Errorf("writing events: %w", err)
	}
	return len(events), nil
}

func init() {
	generateCmd.Flags().StringVar(&genSpecPath, "spec", "", "YAML generator spec; flags set on the command line win")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "Generator seed")
	generateCmd.Flags().IntVar(&genHybridNodes, "hybrid-nodes", 0, "Users linked to their hybrid contacts for the whole trace")
	generateCmd.Flags().IntVar(&genMailboxes, "mailboxes", 0, "Mailbox hosts owned by users")
	generateCmd.Flags().Int64Var(&genMsgSizeMin, "msg-size-min", 10_000, "Minimum message size in bytes")
	generateCmd.Flags().Int64Var(&genMsgSizeMax, "msg-size-max", 100_000, "Maximum message size in bytes (exclusive)")
	generateCmd.Flags().IntVar(&genDailyMsgs, "daily-msgs", 10, "Messages per user per day")
	generateCmd.Flags().BoolVar(&genOnlyWithContacts, "only-with-contacts", false, "Only users with contacts send messages")
	generateCmd.Flags().Int64Var(&genLastConnTimestamp, "last-conn-timestamp", workload.DefaultLastConnTimestamp, "End of the generated trace in seconds")
	generateCmd.Flags().StringVar(&genDataset, "dataset", "hyccups", "Social dataset: hyccups, office")
	generateCmd.Flags().StringVar(&genNetworkPath, "social-network", "", "Social-network listing (default data/<dataset>/social_network.txt)")
	generateCmd.Flags().StringVarP(&genOutPath, "out", "o", "", "Output file (default stdout)")
}
