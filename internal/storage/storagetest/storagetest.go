// Package storagetest holds the behaviour every sample store must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Storage

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises the append-only log contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("LatestOnEmpty", func(t *testing.T) { testLatestOnEmpty(t, newStore) })
	t.Run("AppendAndQueryOrder", func(t *testing.T) { testAppendAndQueryOrder(t, newStore) })
	t.Run("EqualTimestampsKeepInsertionOrder", func(t *testing.T) { testTies(t, newStore) })
	t.Run("RangeBoundsInclusive", func(t *testing.T) { testRangeBounds(t, newStore) })
	t.Run("RejectsInvalidSample", func(t *testing.T) { testInvalidSample(t, newStore) })
	t.Run("RejectsInvalidRange", func(t *testing.T) { testInvalidRange(t, newStore) })
	t.Run("ScanStopsOnCallbackError", func(t *testing.T) { testScanStops(t, newStore) })
	t.Run("FailedSampleHasNoLatency", func(t *testing.T) { testFailedSample(t, newStore) })
	t.Run("ConcurrentReadersDuringAppend", func(t *testing.T) { testConcurrentReaders(t, newStore) })
}

func open(t *testing.T, newStore Factory) storage.Storage {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustAppend(t *testing.T, s storage.Storage, sample *models.Sample) {
	t.Helper()
	if err := s.AppendSample(context.Background(), sample); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
}

func testLatestOnEmpty(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	latest, err := s.LatestSample(context.Background())
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil on empty store, got %+v", latest)
	}
	got, err := s.QuerySamples(context.Background(), storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no samples, got %d", len(got))
	}
}

func testAppendAndQueryOrder(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	for i := 0; i < 5; i++ {
		mustAppend(t, s, models.NewOKSample(base.Add(time.Duration(i)*time.Second), "8.8.8.8", time.Duration(10+i)*time.Millisecond))
	}

	got, err := s.QuerySamples(context.Background(), storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(got))
	}
	for i, sample := range got {
		want := base.Add(time.Duration(i) * time.Second)
		if !sample.Timestamp.Equal(want) {
			t.Fatalf("sample %d: timestamp %s want %s", i, sample.Timestamp, want)
		}
		if sample.ID == 0 {
			t.Fatalf("sample %d: ID not assigned", i)
		}
		if sample.LatencyMS == nil || *sample.LatencyMS != float64(10+i) {
			t.Fatalf("sample %d: latency %v", i, sample.LatencyMS)
		}
	}

	latest, err := s.LatestSample(context.Background())
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if latest == nil || !latest.Timestamp.Equal(base.Add(4*time.Second)) {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func testTies(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	mustAppend(t, s, models.NewOKSample(base, "first", time.Millisecond))
	mustAppend(t, s, models.NewFailedSample(base, "second", models.StatusTimeout))
	mustAppend(t, s, models.NewOKSample(base, "third", time.Millisecond))

	got, err := s.QuerySamples(context.Background(), storage.Range{From: base, To: base})
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Target != want {
			t.Fatalf("position %d: got %s want %s", i, got[i].Target, want)
		}
	}
}

func testRangeBounds(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	for i := 0; i < 10; i++ {
		mustAppend(t, s, models.NewOKSample(base.Add(time.Duration(i)*time.Minute), "8.8.8.8", time.Millisecond))
	}

	cases := []struct {
		name string
		r    storage.Range
		want int
	}{
		{"all", storage.All, 10},
		{"from", storage.Range{From: base.Add(7 * time.Minute)}, 3},
		{"to", storage.Range{To: base.Add(2 * time.Minute)}, 3},
		{"inclusive", storage.Range{From: base.Add(2 * time.Minute), To: base.Add(4 * time.Minute)}, 3},
		{"between rows", storage.Range{From: base.Add(90 * time.Second), To: base.Add(150 * time.Second)}, 1},
		{"empty", storage.Range{From: base.Add(time.Hour)}, 0},
	}
	for _, c := range cases {
		got, err := s.QuerySamples(context.Background(), c.r)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(got) != c.want {
			t.Fatalf("%s: got %d samples want %d", c.name, len(got), c.want)
		}
		for _, sample := range got {
			if !c.r.Contains(sample.Timestamp) {
				t.Fatalf("%s: sample at %s outside range", c.name, sample.Timestamp)
			}
		}
	}
}

func testInvalidSample(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	bad := []*models.Sample{
		{Timestamp: base, Target: "8.8.8.8", Status: models.StatusOK},
		{Timestamp: base, Target: "8.8.8.8", Status: "LOST"},
		{Target: "8.8.8.8", Status: models.StatusTimeout},
	}
	for _, sample := range bad {
		err := s.AppendSample(context.Background(), sample)
		if !errors.Is(err, pkgerrors.ErrInvalidSample) {
			t.Fatalf("expected ErrInvalidSample for %+v, got %v", sample, err)
		}
	}
	got, err := s.QuerySamples(context.Background(), storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("invalid samples must not be stored, found %d", len(got))
	}
}

func testInvalidRange(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	_, err := s.QuerySamples(context.Background(), storage.Range{From: base.Add(time.Hour), To: base})
	if !errors.Is(err, pkgerrors.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func testScanStops(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	for i := 0; i < 4; i++ {
		mustAppend(t, s, models.NewOKSample(base.Add(time.Duration(i)*time.Second), "8.8.8.8", time.Millisecond))
	}
	stop := errors.New("stop")
	seen := 0
	err := s.ScanSamples(context.Background(), storage.All, func(*models.Sample) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if errors.Is(err, pkgerrors.ErrStoreUnavailable) {
		t.Fatalf("callback error must not be reported as store failure")
	}
	if seen != 2 {
		t.Fatalf("scan continued after error: saw %d", seen)
	}
}

func testFailedSample(t *testing.T, newStore Factory) {
	s := open(t, newStore)
	mustAppend(t, s, models.NewFailedSample(base, "8.8.8.8", models.StatusError))

	latest, err := s.LatestSample(context.Background())
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if latest == nil {
		t.Fatalf("expected a sample")
	}
	if latest.Status != models.StatusError || latest.LatencyMS != nil {
		t.Fatalf("unexpected failed sample %+v", latest)
	}
	if _, ok := latest.Latency(); ok {
		t.Fatalf("failed sample must not report latency")
	}
}

// testConcurrentReaders appends from one goroutine while readers poll. Readers
// must only ever see complete rows, and neither result order nor the latest
// timestamp may move backwards.
func testConcurrentReaders(t *testing.T, newStore Factory) {
	const (
		total   = 200
		readers = 4
	)
	s := open(t, newStore)
	ctx := context.Background()
	var done atomic.Bool

	var g errgroup.Group
	g.Go(func() error {
		defer done.Store(true)
		for i := 0; i < total; i++ {
			ts := base.Add(time.Duration(i) * time.Second)
			var sample *models.Sample
			if i%3 == 0 {
				sample = models.NewFailedSample(ts, "8.8.8.8", models.StatusTimeout)
			} else {
				sample = models.NewOKSample(ts, "8.8.8.8", time.Duration(i)*time.Millisecond)
			}
			if err := s.AppendSample(ctx, sample); err != nil {
				return fmt.Errorf("append %d: %w", i, err)
			}
		}
		return nil
	})

	for r := 0; r < readers; r++ {
		g.Go(func() error {
			var lastLatest time.Time
			for {
				finished := done.Load()

				rows, err := s.QuerySamples(ctx, storage.All)
				if err != nil {
					return fmt.Errorf("query: %w", err)
				}
				for i, row := range rows {
					if err := row.Validate(); err != nil {
						return fmt.Errorf("row %d: %w", i, err)
					}
					if i > 0 && row.Timestamp.Before(rows[i-1].Timestamp) {
						return fmt.Errorf("row %d out of order", i)
					}
				}

				latest, err := s.LatestSample(ctx)
				if err != nil {
					return fmt.Errorf("latest: %w", err)
				}
				if latest != nil {
					if err := latest.Validate(); err != nil {
						return fmt.Errorf("latest: %w", err)
					}
					if latest.Timestamp.Before(lastLatest) {
						return fmt.Errorf("latest went back from %s to %s", lastLatest, latest.Timestamp)
					}
					lastLatest = latest.Timestamp
				}

				if finished {
					return nil
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	got, err := s.QuerySamples(ctx, storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != total {
		t.Fatalf("expected %d samples, got %d", total, len(got))
	}
}
