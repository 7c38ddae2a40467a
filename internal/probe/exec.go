package probe

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

var rttPattern = regexp.MustCompile(`time[=<]\s*([0-9]+(?:\.[0-9]+)?)\s*ms`)

// ExecStrategy shells out to the system ping binary for one echo request.
// Useful where unprivileged ICMP sockets are disabled but ping is setuid.
type ExecStrategy struct {
	binary string
}

// NewExecStrategy locates the ping binary. An empty binary searches PATH.
func NewExecStrategy(binary string) (*ExecStrategy, error) {
	if binary == "" {
		binary = "ping"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("exec strategy requires a ping binary: %w", err)
	}
	return &ExecStrategy{binary: path}, nil
}

func (s *ExecStrategy) Name() string { return "exec" }

func (s *ExecStrategy) Probe(ctx context.Context, target string) (time.Duration, error) {
	timeout := time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	cmd := exec.CommandContext(ctx, s.binary, pingArgs(target, timeout)...)
	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if err != nil {
		// ping exits non-zero when no reply arrived
		if _, ok := err.(*exec.ExitError); ok {
			return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: pkgerrors.ErrProbeNoReply}
		}
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: err}
	}
	return parseRTT(out)
}

func pingArgs(target string, timeout time.Duration) []string {
	if runtime.GOOS == "windows" {
		ms := int(timeout / time.Millisecond)
		if ms < 1 {
			ms = 1
		}
		return []string{"-n", "1", "-w", strconv.Itoa(ms), target}
	}
	// -W takes whole seconds on Linux
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), target}
}

func parseRTT(out []byte) (time.Duration, error) {
	m := rttPattern.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("%w: no round-trip time in ping output", pkgerrors.ErrProbeFailed)
	}
	ms, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", pkgerrors.ErrProbeFailed, err)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}
