package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

// Result holds the classified outcome of one probe.
type Result struct {
	Target  string
	Latency time.Duration // zero unless Status is OK
	Status  models.Status
	Err     error
}

// OK reports whether the target answered within the timeout.
func (r Result) OK() bool { return r.Status == models.StatusOK }

// Run probes target once, bounded by timeout. Failures are returned as data:
// the result is always classified and Run never panics, even when the
// strategy does.
func Run(ctx context.Context, s Strategy, target string, timeout time.Duration) (res Result) {
	res.Target = target

	probeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res.Latency = 0
			res.Status = models.StatusError
			res.Err = &pkgerrors.ProbeError{Strategy: s.Name(), Target: target, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	latency, err := s.Probe(probeCtx, target)
	if err == nil && probeCtx.Err() == context.DeadlineExceeded {
		// answered, but too late to count
		err = pkgerrors.ErrProbeTimeout
	}
	if err != nil {
		res.Status = Classify(err)
		res.Err = err
		return res
	}
	if latency < 0 {
		latency = 0
	}
	res.Latency = latency
	res.Status = models.StatusOK
	return res
}

// Classify maps a probe error to a sample status. Anything that means "no
// answer in time" is TIMEOUT; the rest, including tooling failures, is ERROR.
func Classify(err error) models.Status {
	if err == nil {
		return models.StatusOK
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, pkgerrors.ErrProbeTimeout) ||
		errors.Is(err, pkgerrors.ErrProbeNoReply) {
		return models.StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.StatusTimeout
	}
	return models.StatusError
}

// BatchResult holds the outcome of probing several targets.
type BatchResult struct {
	Results   []Result
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ProgressFunc is called each time a single probe completes during a batch.
type ProgressFunc func(result Result, current, total int)

// Batch probes every target concurrently with at most workers in flight.
// Results keep the order of targets.
func Batch(ctx context.Context, s Strategy, targets []string, timeout time.Duration, workers int64, progress ProgressFunc) *BatchResult {
	startTime := time.Now()
	if workers <= 0 {
		workers = 4
	}

	results := make([]Result, len(targets))
	batch := &BatchResult{}
	var mu sync.Mutex
	var completed int

	sem := semaphore.NewWeighted(workers)
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = Result{Target: target, Status: Classify(err), Err: err}
				mu.Lock()
				batch.Failed++
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			result := Run(ctx, s, target, timeout)
			results[idx] = result

			mu.Lock()
			completed++
			current := completed
			if result.OK() {
				batch.Succeeded++
			} else {
				batch.Failed++
			}
			mu.Unlock()

			if progress != nil {
				progress(result, current, len(targets))
			}
		}(i, target)
	}

	wg.Wait()

	batch.Results = results
	batch.Duration = time.Since(startTime)
	return batch
}
