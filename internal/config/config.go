package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"netpulse/internal/paths"
	"netpulse/internal/probe"
	"netpulse/internal/query"
	pkgerrors "netpulse/pkg/errors"
)

const (
	DefaultPrimary   = "8.8.8.8"
	DefaultSecondary = "1.1.1.1"
	DefaultStrategy  = "icmp"
	DefaultInterval  = time.Second
	DefaultTimeout   = 1000 * time.Millisecond
	DefaultMinOutage = time.Second
	DefaultDriver    = "sqlite"
	DefaultLogLevel  = "info"
	DefaultRefresh   = 5 * time.Second
	DefaultLimit     = 50
)

// Drivers lists the supported storage drivers.
var Drivers = []string{"sqlite", "bolt", "memory"}

// Config is the full netpulse configuration. It is built once at startup and
// passed by value afterwards.
type Config struct {
	Targets   TargetsConfig   `yaml:"targets"`
	Probe     ProbeConfig     `yaml:"probe"`
	Outage    OutageConfig    `yaml:"outage"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// TargetsConfig is the ordered failover pair.
type TargetsConfig struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

type ProbeConfig struct {
	Strategy   string        `yaml:"strategy"`
	Interval   time.Duration `yaml:"interval"`
	Timeout    time.Duration `yaml:"timeout"`
	Privileged bool          `yaml:"privileged"`
	TCPPort    int           `yaml:"tcp_port"`
	PingBinary string        `yaml:"ping_binary,omitempty"`
}

type OutageConfig struct {
	MinDuration time.Duration `yaml:"min_duration"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // empty: per-driver file in the data dir
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Dir     string `yaml:"dir"` // empty: state dir
	Console bool   `yaml:"console"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the API
}

type DashboardConfig struct {
	Refresh time.Duration `yaml:"refresh"`
	Window  string        `yaml:"window"`
	Limit   int           `yaml:"limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{Log: LogConfig{Console: true}}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Targets.Primary == "" {
		cfg.Targets.Primary = DefaultPrimary
		if cfg.Targets.Secondary == "" {
			cfg.Targets.Secondary = DefaultSecondary
		}
	}
	if cfg.Probe.Strategy == "" {
		cfg.Probe.Strategy = DefaultStrategy
	}
	if cfg.Probe.Interval == 0 {
		cfg.Probe.Interval = DefaultInterval
	}
	if cfg.Probe.Timeout == 0 {
		cfg.Probe.Timeout = DefaultTimeout
	}
	if cfg.Probe.TCPPort == 0 {
		cfg.Probe.TCPPort = probe.DefaultTCPPort
	}
	if cfg.Outage.MinDuration == 0 {
		cfg.Outage.MinDuration = DefaultMinOutage
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultDriver
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Dashboard.Refresh == 0 {
		cfg.Dashboard.Refresh = DefaultRefresh
	}
	if cfg.Dashboard.Window == "" {
		cfg.Dashboard.Window = string(query.DefaultWindow)
	}
	if cfg.Dashboard.Limit == 0 {
		cfg.Dashboard.Limit = DefaultLimit
	}
}

// Load reads a YAML config file, falling back to defaults when the file does
// not exist. An empty path means the default config file. Environment
// overrides are applied before defaults and validation.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := paths.DefaultConfigFile()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Config{Log: LogConfig{Console: true}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", pkgerrors.ErrConfigInvalid, path, err)
		}
	}

	// Env first: the secondary is only defaulted when the primary is too.
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	ApplyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	paths.ChownToRealUser(path)
	return nil
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg Config) error {
	invalid := func(field, format string, args ...any) error {
		return &pkgerrors.ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
	}

	if strings.TrimSpace(cfg.Targets.Primary) == "" {
		return invalid("targets.primary", "is required")
	}
	if cfg.Targets.Secondary == cfg.Targets.Primary {
		return invalid("targets.secondary", "must differ from primary")
	}
	if !contains(probe.Strategies, cfg.Probe.Strategy) {
		return &pkgerrors.ConfigError{Field: "probe.strategy", Err: fmt.Errorf("%w: %s", pkgerrors.ErrUnknownStrategy, cfg.Probe.Strategy)}
	}
	if cfg.Probe.Interval <= 0 {
		return invalid("probe.interval", "must be positive, got %s", cfg.Probe.Interval)
	}
	if cfg.Probe.Timeout <= 0 {
		return invalid("probe.timeout", "must be positive, got %s", cfg.Probe.Timeout)
	}
	if cfg.Probe.TCPPort < 1 || cfg.Probe.TCPPort > 65535 {
		return invalid("probe.tcp_port", "out of range: %d", cfg.Probe.TCPPort)
	}
	if cfg.Outage.MinDuration < 0 {
		return invalid("outage.min_duration", "must not be negative")
	}
	if !contains(Drivers, cfg.Storage.Driver) {
		return &pkgerrors.ConfigError{Field: "storage.driver", Err: fmt.Errorf("%w: %s", pkgerrors.ErrUnknownDriver, cfg.Storage.Driver)}
	}
	if _, err := query.ParseWindow(cfg.Dashboard.Window); err != nil {
		return &pkgerrors.ConfigError{Field: "dashboard.window", Err: err}
	}
	if cfg.Dashboard.Refresh <= 0 {
		return invalid("dashboard.refresh", "must be positive")
	}
	return nil
}

// StorePath returns the configured store path or the driver default.
func (c Config) StorePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	if c.Storage.Driver == "memory" {
		return "", nil
	}
	return paths.DefaultStorePath(c.Storage.Driver)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
