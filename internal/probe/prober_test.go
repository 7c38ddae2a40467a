package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

type fakeStrategy struct {
	latency time.Duration
	err     error
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Probe(ctx context.Context, target string) (time.Duration, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.latency, f.err
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.Status
	}{
		{"nil", nil, models.StatusOK},
		{"deadline", context.DeadlineExceeded, models.StatusTimeout},
		{"wrapped deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), models.StatusTimeout},
		{"no reply", &pkgerrors.ProbeError{Strategy: "icmp", Target: "x", Err: pkgerrors.ErrProbeNoReply}, models.StatusTimeout},
		{"probe timeout", pkgerrors.ErrProbeTimeout, models.StatusTimeout},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, models.StatusTimeout},
		{"refused", errors.New("connection refused"), models.StatusError},
		{"cancelled", context.Canceled, models.StatusError},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Fatalf("%s: Classify=%s want %s", c.name, got, c.want)
		}
	}
}

func TestRun_OK(t *testing.T) {
	res := Run(context.Background(), &fakeStrategy{latency: 12 * time.Millisecond}, "8.8.8.8", time.Second)
	if !res.OK() || res.Latency != 12*time.Millisecond || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Target != "8.8.8.8" {
		t.Fatalf("target=%s", res.Target)
	}
}

func TestRun_SlowProbeIsTimeout(t *testing.T) {
	res := Run(context.Background(), &fakeStrategy{delay: time.Second}, "8.8.8.8", 20*time.Millisecond)
	if res.Status != models.StatusTimeout {
		t.Fatalf("expected TIMEOUT, got %+v", res)
	}
	if res.Latency != 0 {
		t.Fatalf("failing result must not carry latency")
	}
}

func TestRun_ErrorIsData(t *testing.T) {
	res := Run(context.Background(), &fakeStrategy{err: errors.New("no route to host")}, "8.8.8.8", time.Second)
	if res.Status != models.StatusError || res.Err == nil {
		t.Fatalf("expected ERROR, got %+v", res)
	}
}

func TestRun_PanicBecomesError(t *testing.T) {
	res := Run(context.Background(), &fakeStrategy{panics: true}, "8.8.8.8", time.Second)
	if res.Status != models.StatusError {
		t.Fatalf("expected ERROR, got %+v", res)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "panic") {
		t.Fatalf("expected panic error, got %v", res.Err)
	}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"", "icmp", "tcp", "http"} {
		s, err := NewStrategy(name, Options{})
		if err != nil {
			t.Fatalf("NewStrategy(%q): %v", name, err)
		}
		if name != "" && s.Name() != name {
			t.Fatalf("NewStrategy(%q).Name()=%s", name, s.Name())
		}
	}
	if _, err := NewStrategy("smoke-signal", Options{}); !errors.Is(err, pkgerrors.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	s, _ := NewStrategy("tcp", Options{})
	if s.(*TCPStrategy).Port != DefaultTCPPort {
		t.Fatalf("tcp default port not applied")
	}
}

func TestTCPStrategy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	s := &TCPStrategy{Port: port}
	res := Run(context.Background(), s, "127.0.0.1", time.Second)
	if !res.OK() {
		t.Fatalf("expected OK against live listener, got %+v", res)
	}

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := closed.Addr().String()
	closed.Close()
	res = Run(context.Background(), s, addr, time.Second)
	if res.OK() {
		t.Fatalf("expected failure against closed port")
	}
}

func TestHTTPStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewHTTPStrategy()
	if res := Run(context.Background(), s, srv.URL+"/", time.Second); !res.OK() {
		t.Fatalf("expected OK, got %+v", res)
	}
	if res := Run(context.Background(), s, strings.TrimPrefix(srv.URL, "http://"), time.Second); !res.OK() {
		t.Fatalf("expected bare host to be probed over http, got %+v", res)
	}
	res := Run(context.Background(), s, srv.URL+"/down", time.Second)
	if res.Status != models.StatusError || !errors.Is(res.Err, pkgerrors.ErrProbeFailed) {
		t.Fatalf("expected ERROR for 503, got %+v", res)
	}
}

func TestParseRTT(t *testing.T) {
	linux := []byte("64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=14.5 ms\n")
	got, err := parseRTT(linux)
	if err != nil || got != 14500*time.Microsecond {
		t.Fatalf("linux output: %v %v", got, err)
	}
	windows := []byte("Reply from 1.1.1.1: bytes=32 time<1ms TTL=57\n")
	got, err = parseRTT(windows)
	if err != nil || got != time.Millisecond {
		t.Fatalf("windows output: %v %v", got, err)
	}
	if _, err := parseRTT([]byte("Request timed out.")); !errors.Is(err, pkgerrors.ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
}

func TestBatchKeepsOrder(t *testing.T) {
	s := &fakeStrategy{latency: time.Millisecond}
	targets := []string{"a", "b", "c", "d", "e"}
	var progressCalls atomic.Int32
	batch := Batch(context.Background(), s, targets, time.Second, 2, func(Result, int, int) {
		progressCalls.Add(1)
	})
	if len(batch.Results) != len(targets) || batch.Succeeded != 5 || batch.Failed != 0 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	for i, r := range batch.Results {
		if r.Target != targets[i] {
			t.Fatalf("result %d target %s", i, r.Target)
		}
	}
	if progressCalls.Load() != 5 || s.calls.Load() != 5 {
		t.Fatalf("progress=%d calls=%d", progressCalls.Load(), s.calls.Load())
	}
}
