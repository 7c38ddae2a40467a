package probe

import (
	"context"
	"time"

	"github.com/go-ping/ping"
	pkgerrors "netpulse/pkg/errors"
)

// ICMPStrategy sends a single echo request. Unprivileged mode uses UDP ping
// sockets, which on Linux needs net.ipv4.ping_group_range to cover the user.
type ICMPStrategy struct {
	Privileged bool
}

func (s *ICMPStrategy) Name() string { return "icmp" }

func (s *ICMPStrategy) Probe(ctx context.Context, target string) (time.Duration, error) {
	pinger, err := ping.NewPinger(target)
	if err != nil {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: err}
	}
	pinger.Count = 1
	pinger.SetPrivileged(s.Privileged)
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	// Run blocks until Count replies or Timeout; cancel it early on ctx.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: pkgerrors.ErrProbeNoReply}
	}
	return stats.AvgRtt, nil
}
