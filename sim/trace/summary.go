package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransfers   int
	TierDistribution map[string]int // tier → count of started transfers
	PullCount        int
	PullShare        float64 // PullCount / TotalTransfers; 0 when there are no transfers
	UniqueMessages   int
	Evictions        int
	NoVictimCount    int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TierDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	messages := make(map[string]struct{})
	for _, r := range st.Transfers {
		summary.TierDistribution[r.Tier]++
		if r.Direction == "pull" {
			summary.PullCount++
		}
		messages[r.MessageID] = struct{}{}
	}
	summary.TotalTransfers = len(st.Transfers)
	summary.UniqueMessages = len(messages)
	if summary.TotalTransfers > 0 {
		summary.PullShare = float64(summary.PullCount) / float64(summary.TotalTransfers)
	}

	for _, e := range st.Evictions {
		if e.Found {
			summary.Evictions++
		} else {
			summary.NoVictimCount++
		}
	}
	return summary
}
