package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

// DefaultTCPPort is DNS, which both default targets answer on.
const DefaultTCPPort = 53

// TCPStrategy measures latency via a TCP handshake to target:Port.
// Works without any privileges, at the cost of measuring connect time rather
// than an echo round trip.
type TCPStrategy struct {
	Port int
}

func (s *TCPStrategy) Name() string { return "tcp" }

func (s *TCPStrategy) Probe(ctx context.Context, target string) (time.Duration, error) {
	address := target
	if _, _, err := net.SplitHostPort(target); err != nil {
		address = net.JoinHostPort(target, strconv.Itoa(s.Port))
	}

	start := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: address, Err: err}
	}
	elapsed := time.Since(start)
	conn.Close()

	return elapsed, nil
}
