package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"netpulse/internal/probe"
	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = time.Second
)

// Config is the immutable probing setup handed to NewScheduler.
type Config struct {
	Primary   string
	Secondary string // empty disables failover
	Interval  time.Duration
	Timeout   time.Duration
}

// Stats are running counters since the scheduler was built.
type Stats struct {
	Ticks       uint64
	Failures    uint64
	Failovers   uint64
	StoreErrors uint64
	LastSample  *models.Sample
}

// Scheduler probes the configured targets on a fixed interval and appends
// exactly one sample per tick. It is the only writer of the sample store.
type Scheduler struct {
	cfg      Config
	strategy probe.Strategy
	store    storage.SampleWriter
	logger   *zap.Logger
	clock    clockwork.Clock

	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool
	last      *models.Sample

	ticks       atomic.Uint64
	failures    atomic.Uint64
	failovers   atomic.Uint64
	storeErrors atomic.Uint64
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock sets the clock used for sample timestamps and tick timing.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// NewScheduler creates a new probe scheduler
func NewScheduler(cfg Config, strategy probe.Strategy, store storage.SampleWriter, opts ...Option) (*Scheduler, error) {
	if cfg.Primary == "" {
		return nil, &pkgerrors.ConfigError{Field: "targets.primary", Err: fmt.Errorf("must not be empty")}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Scheduler{
		cfg:      cfg,
		strategy: strategy,
		store:    store,
		logger:   zap.NewNop(),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the scheduler runs with.
func (s *Scheduler) Config() Config { return s.cfg }

// Start starts the probe loop. The first tick fires immediately; a tick that
// overruns the interval delays the next one instead of overlapping it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return pkgerrors.ErrSchedulerRunning
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithClock(s.clock),
		gocron.WithLogger(newCronLogger(s.logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			s.runTick(ctx)
		}),
		gocron.WithName("probe"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		scheduler.Shutdown()
		return fmt.Errorf("failed to create probe job: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.running = true

	s.logger.Info("probe scheduler started",
		zap.String("primary", s.cfg.Primary),
		zap.String("secondary", s.cfg.Secondary),
		zap.String("strategy", s.strategy.Name()),
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("timeout", s.cfg.Timeout),
	)
	return nil
}

// Stop stops issuing probes and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return pkgerrors.ErrSchedulerNotRunning
	}
	scheduler := s.scheduler
	s.scheduler = nil
	s.running = false
	s.mu.Unlock()

	// Shutdown waits for the in-flight tick, which takes s.mu to publish its sample.
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	s.logger.Info("probe scheduler stopped", zap.Uint64("ticks", s.ticks.Load()))
	return nil
}

// Run starts the loop and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns a snapshot of the running counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	return Stats{
		Ticks:       s.ticks.Load(),
		Failures:    s.failures.Load(),
		Failovers:   s.failovers.Load(),
		StoreErrors: s.storeErrors.Load(),
		LastSample:  last,
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("failed to record sample", zap.Error(err))
	}
}

// Tick runs one failover round and appends the resulting sample.
//
// Primary OK: the primary's sample. Primary down but secondary OK: an OK
// sample against the secondary. Both down: the primary's own failure status.
// A store error is returned as is and never retried.
func (s *Scheduler) Tick(ctx context.Context) (*models.Sample, error) {
	now := s.clock.Now()
	sample := s.resolve(ctx, now)

	// Probes cut short by shutdown say nothing about the link.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.ticks.Add(1)
	if sample.Status.IsFailure() {
		s.failures.Add(1)
		s.logger.Warn("outage suspected",
			zap.String("target", sample.Target),
			zap.String("status", string(sample.Status)),
			zap.Time("at", sample.Timestamp),
		)
	}

	if err := s.store.AppendSample(ctx, sample); err != nil {
		s.storeErrors.Add(1)
		return sample, err
	}

	s.mu.Lock()
	s.last = sample
	s.mu.Unlock()
	return sample, nil
}

// Resolve runs one failover round and returns the sample a tick would
// record, without storing it.
func (s *Scheduler) Resolve(ctx context.Context) *models.Sample {
	return s.resolve(ctx, s.clock.Now())
}

func (s *Scheduler) resolve(ctx context.Context, now time.Time) *models.Sample {
	first := probe.Run(ctx, s.strategy, s.cfg.Primary, s.cfg.Timeout)
	if first.OK() {
		return models.NewOKSample(now, s.cfg.Primary, first.Latency)
	}
	if s.cfg.Secondary == "" {
		return models.NewFailedSample(now, s.cfg.Primary, first.Status)
	}

	second := probe.Run(ctx, s.strategy, s.cfg.Secondary, s.cfg.Timeout)
	if second.OK() {
		s.failovers.Add(1)
		s.logger.Info("primary unreachable, secondary reachable",
			zap.String("primary", s.cfg.Primary),
			zap.String("secondary", s.cfg.Secondary),
			zap.String("primary_status", string(first.Status)),
			zap.NamedError("primary_error", first.Err),
		)
		return models.NewOKSample(now, s.cfg.Secondary, second.Latency)
	}

	s.logger.Debug("both targets unreachable",
		zap.NamedError("primary_error", first.Err),
		zap.NamedError("secondary_error", second.Err),
	)
	return models.NewFailedSample(now, s.cfg.Primary, first.Status)
}
