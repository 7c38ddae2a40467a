package outage

import (
	"testing"
	"time"

	"netpulse/internal/storage/models"
)

// summarize feeds samples through an Accumulator the way the query service does.
func summarize(samples []*models.Sample, primary string, interval, minDuration time.Duration) Summary {
	acc := NewAccumulator(primary)
	for _, s := range samples {
		acc.Add(s)
	}
	return acc.Finish(Detect(samples, interval, minDuration))
}

func TestAccumulator_Finish(t *testing.T) {
	samples := series(".TTE.")
	samples[4].Target = "1.1.1.1" // failover
	sum := summarize(samples, "8.8.8.8", time.Second, time.Second)

	if sum.Samples != 5 || sum.OK != 2 || sum.Timeouts != 2 || sum.Errors != 1 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if sum.Failovers != 1 {
		t.Fatalf("failovers=%d", sum.Failovers)
	}
	if sum.UptimePercent != 40 {
		t.Fatalf("uptime=%v", sum.UptimePercent)
	}
	if sum.Outages != 1 || sum.OutageTime != 3*time.Second {
		t.Fatalf("outages=%d time=%s", sum.Outages, sum.OutageTime)
	}
	if !sum.First.Equal(sec(0)) || !sum.Last.Equal(sec(4)) {
		t.Fatalf("first/last %s %s", sum.First, sum.Last)
	}
	if sum.Latency == nil || sum.Latency.Mean != 10 {
		t.Fatalf("latency %+v", sum.Latency)
	}
}

func TestAccumulator_LatencyStats(t *testing.T) {
	acc := NewAccumulator("")
	for i := 1; i <= 20; i++ {
		acc.Add(models.NewOKSample(sec(i), "8.8.8.8", time.Duration(i)*time.Millisecond))
	}
	sum := acc.Finish(nil)
	ls := sum.Latency
	if ls == nil {
		t.Fatalf("missing latency stats")
	}
	if ls.Min != 1 || ls.Max != 20 || ls.Mean != 10.5 || ls.Median != 10.5 || ls.P95 != 19 {
		t.Fatalf("unexpected stats %+v", ls)
	}
	if sum.UptimePercent != 100 || sum.Failovers != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(acc.Latencies()) != 20 {
		t.Fatalf("latencies=%d", len(acc.Latencies()))
	}
}

func TestAccumulator_Empty(t *testing.T) {
	sum := summarize(nil, "8.8.8.8", time.Second, time.Second)
	if sum.Samples != 0 || sum.UptimePercent != 0 || sum.Latency != nil || sum.Outages != 0 {
		t.Fatalf("unexpected empty summary %+v", sum)
	}
}
