package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"netpulse/internal/config"
	"netpulse/internal/logging"
	"netpulse/internal/monitor"
	"netpulse/internal/probe"
	"netpulse/internal/query"
	"netpulse/internal/storage"
	"netpulse/internal/storage/bolt"
	"netpulse/internal/storage/memory"
	"netpulse/internal/storage/sqlite"
	pkgerrors "netpulse/pkg/errors"
)

// App represents the application context
type App struct {
	Config    config.Config
	Storage   storage.Storage
	StorePath string
	Logger    *zap.Logger
	Queries   *query.Service
}

// Options controls how New builds the App.
type Options struct {
	ConfigPath string
	// Override applies command-line flags after file and environment.
	Override func(*config.Config)
	// Console receives human-readable logs; nil keeps logs in the file only.
	Console io.Writer
}

// New creates a new application instance
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Override != nil {
		opts.Override(&cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	logDir := cfg.Log.Dir
	if logDir == "" {
		if logDir, err = logging.DefaultDir(); err != nil {
			return nil, fmt.Errorf("failed to resolve log directory: %w", err)
		}
	}
	var console io.Writer
	if cfg.Log.Console {
		console = opts.Console
	}
	logger, err := logging.NewLogger(logging.Options{Level: cfg.Log.Level, Dir: logDir, Console: console})
	if err != nil {
		return nil, err
	}

	store, path, err := OpenStore(cfg)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Debug("store opened", zap.String("driver", cfg.Storage.Driver), zap.String("path", path))

	return &App{
		Config:    cfg,
		Storage:   store,
		StorePath: path,
		Logger:    logger,
		Queries:   NewQueryService(cfg, store),
	}, nil
}

// OpenStore opens the configured sample store.
func OpenStore(cfg config.Config) (storage.Storage, string, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, "", err
	}
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := sqlite.New(path)
		return db, path, err
	case "bolt":
		db, err := bolt.New(path)
		return db, path, err
	case "memory":
		return memory.New(), "", nil
	default:
		return nil, "", fmt.Errorf("%w: %s", pkgerrors.ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// NewQueryService builds the read side with the probe settings the samples
// were written with.
func NewQueryService(cfg config.Config, reader storage.SampleReader) *query.Service {
	return query.NewService(query.Config{
		ProbeInterval: cfg.Probe.Interval,
		MinOutage:     cfg.Outage.MinDuration,
		Primary:       cfg.Targets.Primary,
	}, reader, nil)
}

// NewStrategy builds the configured prober.
func (a *App) NewStrategy() (probe.Strategy, error) {
	return probe.NewStrategy(a.Config.Probe.Strategy, probe.Options{
		Privileged: a.Config.Probe.Privileged,
		TCPPort:    a.Config.Probe.TCPPort,
		PingBinary: a.Config.Probe.PingBinary,
	})
}

// NewScheduler builds the probe scheduler writing into the app's store.
func (a *App) NewScheduler() (*monitor.Scheduler, error) {
	strategy, err := a.NewStrategy()
	if err != nil {
		return nil, err
	}
	return monitor.NewScheduler(monitor.Config{
		Primary:   a.Config.Targets.Primary,
		Secondary: a.Config.Targets.Secondary,
		Interval:  a.Config.Probe.Interval,
		Timeout:   a.Config.Probe.Timeout,
	}, strategy, a.Storage, monitor.WithLogger(a.Logger.Named("monitor")))
}

// Close closes the application and releases resources
func (a *App) Close() error {
	a.Logger.Sync()
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
