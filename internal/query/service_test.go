package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"netpulse/internal/storage"
	"netpulse/internal/storage/memory"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sec(n int) time.Time { return t0.Add(time.Duration(n) * time.Second) }

// seed appends one sample per second from t0: '.' OK, 'T' TIMEOUT, 'E' ERROR.
func seed(t *testing.T, store *memory.Store, pattern string) {
	t.Helper()
	for i, c := range pattern {
		var s *models.Sample
		switch c {
		case '.':
			s = models.NewOKSample(sec(i), "8.8.8.8", 20*time.Millisecond)
		case 'T':
			s = models.NewFailedSample(sec(i), "8.8.8.8", models.StatusTimeout)
		case 'E':
			s = models.NewFailedSample(sec(i), "8.8.8.8", models.StatusError)
		}
		if err := store.AppendSample(context.Background(), s); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}
}

func newService(store storage.SampleReader) *Service {
	return NewService(Config{ProbeInterval: time.Second, MinOutage: time.Second, Primary: "8.8.8.8"},
		store, clockwork.NewFakeClockAt(sec(100)))
}

type brokenReader struct{}

var errDiskGone = &pkgerrors.StoreError{Backend: "test", Op: "scan", Err: errors.New("disk gone")}

func (brokenReader) QuerySamples(context.Context, storage.Range) ([]*models.Sample, error) {
	return nil, errDiskGone
}
func (brokenReader) ScanSamples(context.Context, storage.Range, func(*models.Sample) error) error {
	return errDiskGone
}
func (brokenReader) LatestSample(context.Context) (*models.Sample, error) { return nil, errDiskGone }

func TestEmptyStore(t *testing.T) {
	svc := newService(memory.New())
	ctx := context.Background()

	st, err := svc.CurrentStatus(ctx)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if st.HasData || st.Online() {
		t.Fatalf("expected no data, got %+v", st)
	}

	list, err := svc.ListOutages(ctx, storage.All, 50)
	if err != nil {
		t.Fatalf("ListOutages: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
	last, err := svc.LastOutage(ctx, storage.All)
	if err != nil || last != nil {
		t.Fatalf("LastOutage=%v err=%v", last, err)
	}
}

func TestAllOK(t *testing.T) {
	store := memory.New()
	seed(t, store, "..........")
	svc := newService(store)
	ctx := context.Background()

	count, err := svc.OutageCount(ctx, storage.All)
	if err != nil || count != 0 {
		t.Fatalf("OutageCount=%d err=%v", count, err)
	}
	last, err := svc.LastOutage(ctx, storage.All)
	if err != nil || last != nil {
		t.Fatalf("LastOutage=%v err=%v", last, err)
	}
	st, _ := svc.CurrentStatus(ctx)
	if !st.Online() || st.LatencyMS == nil || *st.LatencyMS != 20 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestScenario(t *testing.T) {
	store := memory.New()
	seed(t, store, ".TTE.")
	svc := newService(store)
	ctx := context.Background()

	list, err := svc.ListOutages(ctx, storage.All, 0)
	if err != nil {
		t.Fatalf("ListOutages: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(list))
	}
	ep := list[0]
	if !ep.Start.Equal(sec(1)) || !ep.End.Equal(sec(3)) || ep.Duration != 3*time.Second {
		t.Fatalf("unexpected episode %+v", ep)
	}
	if ep.Kind != "timeout/packet-loss" {
		t.Fatalf("kind=%q", ep.Kind)
	}
	st, _ := svc.CurrentStatus(ctx)
	if !st.Timestamp.Equal(sec(4)) {
		t.Fatalf("latest at %s", st.Timestamp)
	}
}

func TestListOutagesLimitKeepsMostRecent(t *testing.T) {
	store := memory.New()
	seed(t, store, "T.T.T.T.")
	svc := newService(store)

	list, err := svc.ListOutages(context.Background(), storage.All, 2)
	if err != nil {
		t.Fatalf("ListOutages: %v", err)
	}
	if len(list) != 2 || !list[0].Start.Equal(sec(6)) || !list[1].Start.Equal(sec(4)) {
		t.Fatalf("unexpected list %+v", list)
	}
	count, _ := svc.OutageCount(context.Background(), storage.All)
	if count != 4 {
		t.Fatalf("count=%d", count)
	}
}

func TestWindowExcludesOutsideSamples(t *testing.T) {
	store := memory.New()
	// failures at 1-2 and 6-8; window [2,7] sees only 2 and 6-7
	seed(t, store, ".TT...TTT.")
	svc := newService(store)

	list, err := svc.ListOutages(context.Background(), storage.Range{From: sec(2), To: sec(7)}, 0)
	if err != nil {
		t.Fatalf("ListOutages: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 episodes, got %+v", list)
	}
	if !list[0].Start.Equal(sec(6)) || !list[0].End.Equal(sec(7)) || !list[0].Open {
		t.Fatalf("episode crossing upper bound must stop at last sample inside: %+v", list[0])
	}
	if !list[1].Start.Equal(sec(2)) || list[1].Duration != time.Second {
		t.Fatalf("episode crossing lower bound must start inside the window: %+v", list[1])
	}
}

func TestInvalidWindow(t *testing.T) {
	svc := newService(memory.New())
	bad := storage.Range{From: sec(10), To: sec(1)}
	ctx := context.Background()

	if _, err := svc.ListOutages(ctx, bad, 0); !errors.Is(err, pkgerrors.ErrInvalidWindow) {
		t.Fatalf("ListOutages: %v", err)
	}
	if _, err := svc.OutageCount(ctx, bad); !errors.Is(err, pkgerrors.ErrInvalidWindow) {
		t.Fatalf("OutageCount: %v", err)
	}
	if _, err := svc.Report(ctx, bad, 0); !errors.Is(err, pkgerrors.ErrInvalidWindow) {
		t.Fatalf("Report: %v", err)
	}
}

func TestStoreUnavailableIsAnError(t *testing.T) {
	svc := newService(brokenReader{})
	ctx := context.Background()

	if _, err := svc.CurrentStatus(ctx); !errors.Is(err, pkgerrors.ErrStoreUnavailable) {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if _, err := svc.ListOutages(ctx, storage.All, 0); !errors.Is(err, pkgerrors.ErrStoreUnavailable) {
		t.Fatalf("ListOutages: %v", err)
	}
	if _, err := svc.Report(ctx, storage.All, 0); !errors.Is(err, pkgerrors.ErrStoreUnavailable) {
		t.Fatalf("Report: %v", err)
	}
}

func TestReport(t *testing.T) {
	store := memory.New()
	seed(t, store, ".TTE..T...")
	svc := newService(store)

	report, err := svc.Report(context.Background(), storage.All, 1)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.OutageCount != 2 || len(report.Outages) != 1 {
		t.Fatalf("count=%d listed=%d", report.OutageCount, len(report.Outages))
	}
	if report.LastOutage == nil || !report.LastOutage.Start.Equal(sec(6)) {
		t.Fatalf("last outage %+v", report.LastOutage)
	}
	if report.Summary.Samples != 10 || report.Summary.OK != 6 || report.Summary.OutageTime != 4*time.Second {
		t.Fatalf("summary %+v", report.Summary)
	}
	if !report.Current.HasData || len(report.Trend) != 6 {
		t.Fatalf("current=%+v trend=%v", report.Current, report.Trend)
	}
}

func TestServiceRangeUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	svc := NewService(Config{}, memory.New(), clock)
	r := svc.Range(WindowHour)
	if !r.From.Equal(t0.Add(-time.Hour)) || !r.To.IsZero() {
		t.Fatalf("unexpected range %+v", r)
	}
	if !svc.Range(WindowAll).Unbounded() {
		t.Fatalf("all must be unbounded")
	}
}

func TestDownsample(t *testing.T) {
	if got := Downsample(nil, 10); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := Downsample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("got %v", got)
	}
	if got := Downsample([]float64{1, 2}, 5); len(got) != 2 {
		t.Fatalf("short input must be returned as is, got %v", got)
	}
}
