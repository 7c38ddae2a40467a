package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

// HTTPStrategy measures the time to the response headers of a GET request.
// Bare hosts are probed as http://<host>/; any status below 500 counts as
// reachable, since the check is about the path to the host, not the service.
type HTTPStrategy struct {
	client *http.Client
}

// NewHTTPStrategy creates a new HTTP strategy.
func NewHTTPStrategy() *HTTPStrategy {
	transport := &http.Transport{
		Proxy:             nil,
		DisableKeepAlives: true,
	}
	return &HTTPStrategy{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse // Don't follow redirects.
			},
		},
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

func (s *HTTPStrategy) Probe(ctx context.Context, target string) (time.Duration, error) {
	url := target
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + target + "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: err}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: err}
	}
	elapsed := time.Since(start)
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return 0, &pkgerrors.ProbeError{
			Strategy: s.Name(),
			Target:   target,
			Err:      fmt.Errorf("%w: status code %d", pkgerrors.ErrProbeFailed, resp.StatusCode),
		}
	}
	return elapsed, nil
}
