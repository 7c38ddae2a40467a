package outage

import (
	"time"

	"github.com/montanaflynn/stats"
	"netpulse/internal/storage/models"
)

// LatencyStats describes OK-sample latencies in milliseconds.
type LatencyStats struct {
	Mean   float64 `json:"mean_ms"`
	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Median float64 `json:"median_ms"`
	P95    float64 `json:"p95_ms"`
	StdDev float64 `json:"stddev_ms"`
}

// Summary aggregates a window of samples.
type Summary struct {
	Samples       int           `json:"samples"`
	OK            int           `json:"ok"`
	Timeouts      int           `json:"timeouts"`
	Errors        int           `json:"errors"`
	Failovers     int           `json:"failovers"` // OK samples measured against a non-primary target
	UptimePercent float64       `json:"uptime_percent"`
	Latency       *LatencyStats `json:"latency,omitempty"`
	Outages       int           `json:"outages"`
	OutageTime    time.Duration `json:"outage_time"`
	First         time.Time     `json:"first,omitempty"`
	Last          time.Time     `json:"last,omitempty"`
}

// Accumulator builds a Summary from a sample stream. It keeps only latency
// values, not samples.
type Accumulator struct {
	primary   string
	sum       Summary
	latencies stats.Float64Data
}

// NewAccumulator creates an accumulator. Samples whose target differs from
// primary are counted as failovers; an empty primary disables that count.
func NewAccumulator(primary string) *Accumulator {
	return &Accumulator{primary: primary}
}

// Add feeds the next sample.
func (a *Accumulator) Add(s *models.Sample) {
	if a.sum.Samples == 0 {
		a.sum.First = s.Timestamp
	}
	a.sum.Samples++
	a.sum.Last = s.Timestamp

	switch s.Status {
	case models.StatusOK:
		a.sum.OK++
		if s.LatencyMS != nil {
			a.latencies = append(a.latencies, *s.LatencyMS)
		}
		if a.primary != "" && s.Target != a.primary {
			a.sum.Failovers++
		}
	case models.StatusTimeout:
		a.sum.Timeouts++
	default:
		a.sum.Errors++
	}
}

// Latencies returns the OK latencies seen so far, in arrival order.
func (a *Accumulator) Latencies() []float64 {
	return a.latencies
}

// Finish completes the summary with the episodes detected over the same samples.
func (a *Accumulator) Finish(episodes []Episode) Summary {
	out := a.sum
	if out.Samples > 0 {
		out.UptimePercent = float64(out.OK) / float64(out.Samples) * 100
	}
	out.Outages = len(episodes)
	for _, ep := range episodes {
		out.OutageTime += ep.Duration
	}
	if len(a.latencies) > 0 {
		out.Latency = latencyStats(a.latencies)
	}
	return out
}

func latencyStats(data stats.Float64Data) *LatencyStats {
	ls := &LatencyStats{}
	ls.Mean, _ = data.Mean()
	ls.Min, _ = data.Min()
	ls.Max, _ = data.Max()
	ls.Median, _ = data.Median()
	ls.P95, _ = data.Percentile(95)
	ls.StdDev, _ = data.StandardDeviation()
	return ls
}
