package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/dtn-sim/sim"
	"github.com/inference-sim/dtn-sim/sim/social"
)

var (
	socDataset       string
	socNetworkPath   string
	socInterestsPath string
)

// socialCmd summarizes a social dataset: contact graph shape and shared interests
var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Print statistics for a social dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		ds, ok := social.Datasets[socDataset]
		if !ok {
			logrus.Fatalf("Unknown dataset %q; valid: %v", socDataset, social.DatasetNames())
		}
		networkPath := socNetworkPath
		if networkPath == "" {
			networkPath = defaultNetworkPath(ds.Name)
		}
		interestsPath := socInterestsPath
		if interestsPath == "" {
			interestsPath = filepath.Join("data", ds.Name, "interests.txt")
		}

		network := social.LoadSocialNetwork(networkPath, ds.Population)
		interests := social.LoadInterests(interestsPath, ds.Population, ds.Interests)
		describeSocial(os.Stdout, ds, network, interests)
	},
}

// SocialStats summarizes a contact graph and its interest overlap.
type SocialStats struct {
	Users             int
	Edges             int
	UsersWithContacts int
	ReciprocalEdges   int // edges whose reverse is also listed
	OutDegree         sim.Distribution
	UsersWithInterest int
	CommonInterests   sim.Distribution // per listed edge
	Diagnostics       int
}

// computeSocialStats derives SocialStats from parsed inputs. interests may be nil.
func computeSocialStats(population int, network *social.Network, interests *social.Interests) SocialStats {
	g := network.Graph
	st := SocialStats{
		Users:             population,
		Edges:             g.EdgeCount(),
		UsersWithContacts: len(g.UsersWithContacts()),
		Diagnostics:       len(network.Diagnostics),
	}
	degrees := make([]float64, population)
	var common []float64
	for u := 0; u < population; u++ {
		user := sim.NodeID(u)
		contacts := g.Contacts(user)
		degrees[u] = float64(len(contacts))
		for _, c := range contacts {
			if g.IsContact(c, user) {
				st.ReciprocalEdges++
			}
			if interests != nil {
				common = append(common, float64(len(interests.Common(user, c))))
			}
		}
	}
	st.OutDegree = sim.NewDistribution(degrees)
	if interests != nil {
		for u := 0; u < population; u++ {
			if len(interests.Of(sim.NodeID(u))) > 0 {
				st.UsersWithInterest++
			}
		}
		st.CommonInterests = sim.NewDistribution(common)
		st.Diagnostics += len(interests.Diagnostics)
	}
	return st
}

func describeSocial(w io.Writer, ds social.Dataset, network *social.Network, interests *social.Interests) {
	st := computeSocialStats(ds.Population, network, interests)
	fmt.Fprintf(w, "=== Social Dataset: %s ===\n", ds.Name)
	fmt.Fprintf(w, "Users                : %d\n", st.Users)
	fmt.Fprintf(w, "Directed Edges       : %d\n", st.Edges)
	fmt.Fprintf(w, "Reciprocal Edges     : %d\n", st.ReciprocalEdges)
	fmt.Fprintf(w, "Users With Contacts  : %d\n", st.UsersWithContacts)
	fmt.Fprintf(w, "Out Degree           : mean=%.2f p50=%.0f max=%.0f\n", st.OutDegree.Mean, st.OutDegree.P50, st.OutDegree.Max)
	fmt.Fprintf(w, "Users With Interests : %d\n", st.UsersWithInterest)
	if st.CommonInterests.Count > 0 {
		fmt.Fprintf(w, "Common Interests     : mean=%.2f max=%.0f (per edge)\n", st.CommonInterests.Mean, st.CommonInterests.Max)
	}
	fmt.Fprintf(w, "Skipped Lines        : %d\n", st.Diagnostics)
}

func init() {
	socialCmd.Flags().StringVar(&socDataset, "dataset", "hyccups", "Social dataset: hyccups, office")
	socialCmd.Flags().StringVar(&socNetworkPath, "social-network", "", "Social-network listing (default data/<dataset>/social_network.txt)")
	socialCmd.Flags().StringVar(&socInterestsPath, "interests", "", "Interests listing (default data/<dataset>/interests.txt)")
}
