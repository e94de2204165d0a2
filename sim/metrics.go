// Tracks simulation-wide message statistics: creation, relaying, delivery, loss.

package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Created   int // messages originated
	Started   int // transfers started
	Relayed   int // transfers completed (including deliveries)
	Aborted   int // transfers cut short by a connection going down or by message expiry
	Delivered int // messages that reached their destination (first copy only)
	Dropped   int // copies removed to free buffer space
	Rejected  int // copies that never entered a buffer for lack of space
	Expired   int // copies removed because their TTL elapsed
	NoVictim  int // eviction requests that found no eligible message

	TierStarts      map[Tier]int
	DirectionStarts map[Direction]int

	DeliveryLatencies []float64 // ticks from creation to delivery
	HopCounts         []float64 // forwarders per delivered message
	BufferTimes       []float64 // ticks a relayed copy sat in the sender's buffer
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		TierStarts:      make(map[Tier]int),
		DirectionStarts: make(map[Direction]int),
	}
}

// DeliveryProbability returns Delivered / Created, or 0 without messages.
func (m *Metrics) DeliveryProbability() float64 {
	if m.Created == 0 {
		return 0
	}
	return float64(m.Delivered) / float64(m.Created)
}

// OverheadRatio returns (Relayed - Delivered) / Delivered, or 0 without deliveries.
func (m *Metrics) OverheadRatio() float64 {
	if m.Delivered == 0 {
		return 0
	}
	return float64(m.Relayed-m.Delivered) / float64(m.Delivered)
}

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	Min    float64
	Max    float64
	Count  int
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d := Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// Print writes aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer, clock int64) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Ticks      : %d\n", clock)
	fmt.Fprintf(w, "Created              : %d\n", m.Created)
	fmt.Fprintf(w, "Started              : %d\n", m.Started)
	fmt.Fprintf(w, "Relayed              : %d\n", m.Relayed)
	fmt.Fprintf(w, "Aborted              : %d\n", m.Aborted)
	fmt.Fprintf(w, "Delivered            : %d\n", m.Delivered)
	fmt.Fprintf(w, "Dropped              : %d\n", m.Dropped)
	fmt.Fprintf(w, "Rejected             : %d\n", m.Rejected)
	fmt.Fprintf(w, "Expired              : %d\n", m.Expired)
	fmt.Fprintf(w, "No Eviction Victim   : %d\n", m.NoVictim)
	fmt.Fprintf(w, "Delivery Probability : %.4f\n", m.DeliveryProbability())
	fmt.Fprintf(w, "Overhead Ratio       : %.4f\n", m.OverheadRatio())
	for _, tier := range []Tier{TierDirect, TierContactOrigin, TierContactRelay, TierFlood} {
		fmt.Fprintf(w, "Starts [%-14s]: %d\n", tier, m.TierStarts[tier])
	}
	fmt.Fprintf(w, "Pull Starts          : %d\n", m.DirectionStarts[DirectionPull])

	if m.Delivered > 0 {
		lat := NewDistribution(m.DeliveryLatencies)
		hops := NewDistribution(m.HopCounts)
		fmt.Fprintf(w, "Latency (ticks)      : mean=%.2f p50=%.2f p95=%.2f max=%.2f\n", lat.Mean, lat.P50, lat.P95, lat.Max)
		fmt.Fprintf(w, "Hop Count            : mean=%.2f p50=%.2f max=%.0f\n", hops.Mean, hops.P50, hops.Max)
	}
	if len(m.BufferTimes) > 0 {
		bt := NewDistribution(m.BufferTimes)
		fmt.Fprintf(w, "Buffer Time (ticks)  : mean=%.2f p50=%.2f\n", bt.Mean, bt.P50)
	}
}
