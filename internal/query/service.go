package query

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"netpulse/internal/outage"
	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
)

// Config is the immutable setup of a Service. ProbeInterval must match the
// scheduler that wrote the samples.
type Config struct {
	ProbeInterval time.Duration
	MinOutage     time.Duration
	Primary       string // for failover counting in reports
}

// Status is the most recent sample, or HasData=false for an empty store.
type Status struct {
	HasData   bool          `json:"has_data"`
	Timestamp time.Time     `json:"timestamp,omitempty"`
	Target    string        `json:"target,omitempty"`
	Status    models.Status `json:"status,omitempty"`
	LatencyMS *float64      `json:"latency_ms,omitempty"`
}

// Online reports whether the latest sample is OK.
func (s Status) Online() bool { return s.HasData && s.Status == models.StatusOK }

// Report bundles every query shape for one window, computed in a single scan.
type Report struct {
	Range       storage.Range    `json:"-"`
	Current     Status           `json:"current"`
	LastOutage  *outage.Episode  `json:"last_outage"`
	OutageCount int              `json:"outage_count"`
	Outages     []outage.Episode `json:"outages"`
	Summary     outage.Summary   `json:"summary"`
	Trend       []float64        `json:"trend,omitempty"` // bucketed mean latency, oldest first
}

// trendPoints is the resolution of Report.Trend.
const trendPoints = 60

// Service answers read-only questions about the sample log. Every call
// re-reads the store; nothing is cached between calls.
type Service struct {
	cfg    Config
	reader storage.SampleReader
	clock  clockwork.Clock
}

// NewService creates a query service. A nil clock means the real clock.
func NewService(cfg Config, reader storage.SampleReader, clock clockwork.Clock) *Service {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = time.Second
	}
	if cfg.MinOutage < 0 {
		cfg.MinOutage = 0
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{cfg: cfg, reader: reader, clock: clock}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.clock.Now() }

// Range resolves a relative window against the service clock.
func (s *Service) Range(w Window) storage.Range {
	return w.RangeAt(s.clock.Now())
}

// CurrentStatus returns the latest sample in the store.
func (s *Service) CurrentStatus(ctx context.Context) (Status, error) {
	latest, err := s.reader.LatestSample(ctx)
	if err != nil {
		return Status{}, err
	}
	return statusOf(latest), nil
}

func statusOf(sample *models.Sample) Status {
	if sample == nil {
		return Status{}
	}
	return Status{
		HasData:   true,
		Timestamp: sample.Timestamp,
		Target:    sample.Target,
		Status:    sample.Status,
		LatencyMS: sample.LatencyMS,
	}
}

// LastOutage returns the most recent episode in r, or nil when there is none.
func (s *Service) LastOutage(ctx context.Context, r storage.Range) (*outage.Episode, error) {
	episodes, err := s.episodes(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, nil
	}
	ep := episodes[0]
	return &ep, nil
}

// OutageCount returns the number of episodes in r.
func (s *Service) OutageCount(ctx context.Context, r storage.Range) (int, error) {
	episodes, err := s.episodes(ctx, r)
	if err != nil {
		return 0, err
	}
	return len(episodes), nil
}

// ListOutages returns the most recent limit episodes in r, newest first.
// limit <= 0 returns all of them. An empty window yields an empty slice.
func (s *Service) ListOutages(ctx context.Context, r storage.Range, limit int) ([]outage.Episode, error) {
	episodes, err := s.episodes(ctx, r)
	if err != nil {
		return nil, err
	}
	return truncate(episodes, limit), nil
}

// Report computes status, outages and summary statistics for r.
func (s *Service) Report(ctx context.Context, r storage.Range, limit int) (*Report, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	detector := outage.NewDetector(s.cfg.ProbeInterval, s.cfg.MinOutage)
	acc := outage.NewAccumulator(s.cfg.Primary)
	err := s.reader.ScanSamples(ctx, r, func(sample *models.Sample) error {
		detector.Observe(sample)
		acc.Add(sample)
		return nil
	})
	if err != nil {
		return nil, err
	}

	current, err := s.CurrentStatus(ctx)
	if err != nil {
		return nil, err
	}

	episodes := detector.Episodes()
	report := &Report{
		Range:       r,
		Current:     current,
		OutageCount: len(episodes),
		Outages:     truncate(episodes, limit),
		Summary:     acc.Finish(episodes),
		Trend:       Downsample(acc.Latencies(), trendPoints),
	}
	if len(episodes) > 0 {
		ep := episodes[0]
		report.LastOutage = &ep
	}
	return report, nil
}

// Samples streams the raw samples of r into fn.
func (s *Service) Samples(ctx context.Context, r storage.Range, fn func(*models.Sample) error) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.reader.ScanSamples(ctx, r, fn)
}

func (s *Service) episodes(ctx context.Context, r storage.Range) ([]outage.Episode, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	detector := outage.NewDetector(s.cfg.ProbeInterval, s.cfg.MinOutage)
	err := s.reader.ScanSamples(ctx, r, func(sample *models.Sample) error {
		detector.Observe(sample)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detector.Episodes(), nil
}

func truncate(episodes []outage.Episode, limit int) []outage.Episode {
	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes
}

// Downsample averages values into at most n equal buckets.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	if len(values) <= n {
		return append([]float64(nil), values...)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
