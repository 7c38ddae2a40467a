package config

import (
	"github.com/spf13/cast"
	pkgerrors "netpulse/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NETPULSE_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	field string
	apply func(cfg *Config, raw string) error
}

// Durations need a unit ("2s", "500ms"); bare numbers would be nanoseconds.
var envBindings = []envBinding{
	{"PRIMARY", "targets.primary", func(c *Config, v string) error { c.Targets.Primary = v; return nil }},
	{"SECONDARY", "targets.secondary", func(c *Config, v string) error { c.Targets.Secondary = v; return nil }},
	{"STRATEGY", "probe.strategy", func(c *Config, v string) error { c.Probe.Strategy = v; return nil }},
	{"INTERVAL", "probe.interval", func(c *Config, v string) (err error) {
		c.Probe.Interval, err = cast.ToDurationE(v)
		return err
	}},
	{"TIMEOUT", "probe.timeout", func(c *Config, v string) (err error) {
		c.Probe.Timeout, err = cast.ToDurationE(v)
		return err
	}},
	{"PRIVILEGED", "probe.privileged", func(c *Config, v string) (err error) {
		c.Probe.Privileged, err = cast.ToBoolE(v)
		return err
	}},
	{"TCP_PORT", "probe.tcp_port", func(c *Config, v string) (err error) {
		c.Probe.TCPPort, err = cast.ToIntE(v)
		return err
	}},
	{"MIN_OUTAGE", "outage.min_duration", func(c *Config, v string) (err error) {
		c.Outage.MinDuration, err = cast.ToDurationE(v)
		return err
	}},
	{"DRIVER", "storage.driver", func(c *Config, v string) error { c.Storage.Driver = v; return nil }},
	{"DB", "storage.path", func(c *Config, v string) error { c.Storage.Path = v; return nil }},
	{"LOG_LEVEL", "log.level", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_DIR", "log.dir", func(c *Config, v string) error { c.Log.Dir = v; return nil }},
	{"LOG_CONSOLE", "log.console", func(c *Config, v string) (err error) {
		c.Log.Console, err = cast.ToBoolE(v)
		return err
	}},
	{"LISTEN", "http.listen", func(c *Config, v string) error { c.HTTP.Listen = v; return nil }},
	{"WINDOW", "dashboard.window", func(c *Config, v string) error { c.Dashboard.Window = v; return nil }},
	{"REFRESH", "dashboard.refresh", func(c *Config, v string) (err error) {
		c.Dashboard.Refresh, err = cast.ToDurationE(v)
		return err
	}},
	{"LIMIT", "dashboard.limit", func(c *Config, v string) (err error) {
		c.Dashboard.Limit, err = cast.ToIntE(v)
		return err
	}},
}

// ApplyEnv overrides cfg with NETPULSE_* variables found through lookup.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for _, b := range envBindings {
		raw, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.apply(cfg, raw); err != nil {
			return &pkgerrors.ConfigError{Field: b.field + " (" + EnvPrefix + b.key + ")", Err: err}
		}
	}
	return nil
}
