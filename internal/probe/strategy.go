package probe

import (
	"context"
	"fmt"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

// Strategy defines how one reachability check is performed against a target.
type Strategy interface {
	// Name returns the strategy identifier ("icmp", "tcp", "http" or "exec").
	Name() string
	// Probe checks target once and returns the measured round-trip time. The
	// context carries the per-probe deadline.
	Probe(ctx context.Context, target string) (time.Duration, error)
}

// Options tunes the concrete strategies built by NewStrategy.
type Options struct {
	// Privileged makes the ICMP strategy use raw sockets instead of UDP ping.
	Privileged bool
	// TCPPort is used when a tcp target carries no port.
	TCPPort int
	// PingBinary overrides the system ping used by the exec strategy.
	PingBinary string
}

// Strategies lists the names accepted by NewStrategy.
var Strategies = []string{"icmp", "tcp", "http", "exec"}

// NewStrategy creates a Strategy by name. The empty name selects icmp.
func NewStrategy(name string, opts Options) (Strategy, error) {
	switch name {
	case "icmp", "":
		return &ICMPStrategy{Privileged: opts.Privileged}, nil
	case "tcp":
		port := opts.TCPPort
		if port == 0 {
			port = DefaultTCPPort
		}
		return &TCPStrategy{Port: port}, nil
	case "http":
		return NewHTTPStrategy(), nil
	case "exec":
		return NewExecStrategy(opts.PingBinary)
	default:
		return nil, fmt.Errorf("%w: %s (available: icmp, tcp, http, exec)", pkgerrors.ErrUnknownStrategy, name)
	}
}
