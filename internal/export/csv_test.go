package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"netpulse/internal/query"
	"netpulse/internal/storage"
	"netpulse/internal/storage/memory"
	"netpulse/internal/storage/models"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *query.Service {
	t.Helper()
	store := memory.New()
	samples := []*models.Sample{
		models.NewOKSample(t0, "8.8.8.8", 12500*time.Microsecond),
		models.NewFailedSample(t0.Add(time.Second), "8.8.8.8", models.StatusTimeout),
		models.NewFailedSample(t0.Add(2*time.Second), "8.8.8.8", models.StatusError),
		models.NewOKSample(t0.Add(3*time.Second), "1.1.1.1", 9*time.Millisecond),
	}
	for _, s := range samples {
		if err := store.AppendSample(context.Background(), s); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}
	return query.NewService(query.Config{ProbeInterval: time.Second, MinOutage: time.Second}, store, nil)
}

func TestSamplesCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := Samples(context.Background(), seeded(t), storage.All, &buf)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if n != 4 {
		t.Fatalf("exported %d rows", n)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %q", buf.String())
	}
	if lines[0] != "timestamp,target,latency_ms,status" {
		t.Fatalf("header=%q", lines[0])
	}
	if lines[1] != "2025-03-01T08:00:00Z,8.8.8.8,12.500,OK" {
		t.Fatalf("row 1=%q", lines[1])
	}
	if lines[2] != "2025-03-01T08:00:01Z,8.8.8.8,,TIMEOUT" {
		t.Fatalf("failing row must have empty latency: %q", lines[2])
	}
}

func TestOutagesCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := Outages(context.Background(), seeded(t), storage.All, 0, &buf)
	if err != nil {
		t.Fatalf("Outages: %v", err)
	}
	if n != 1 {
		t.Fatalf("exported %d episodes", n)
	}
	want := "start,end,duration_s,failures,open,kind\n" +
		"2025-03-01T08:00:01Z,2025-03-01T08:00:02Z,2,2,false,timeout/packet-loss\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestOutagesCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutages(&buf, nil); err != nil {
		t.Fatalf("WriteOutages: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "start,end,duration_s,failures,open,kind" {
		t.Fatalf("got %q", buf.String())
	}
}

type failingReader struct {
	*memory.Store
	err error
}

func (f failingReader) ScanSamples(ctx context.Context, r storage.Range, fn func(*models.Sample) error) error {
	if err := f.Store.ScanSamples(ctx, r, fn); err != nil {
		return err
	}
	return f.err
}

func TestSamplesCSV_StreamsUntilFailure(t *testing.T) {
	boom := errors.New("disk gone")

	var empty bytes.Buffer
	svc := query.NewService(query.Config{}, failingReader{Store: memory.New(), err: boom}, nil)
	if n, err := Samples(context.Background(), svc, storage.All, &empty); !errors.Is(err, boom) || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if empty.Len() != 0 {
		t.Fatalf("nothing should be written before the first row, got %q", empty.String())
	}

	store := memory.New()
	if err := store.AppendSample(context.Background(), models.NewOKSample(t0, "8.8.8.8", time.Millisecond)); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	var partial bytes.Buffer
	svc = query.NewService(query.Config{}, failingReader{Store: store, err: boom}, nil)
	n, err := Samples(context.Background(), svc, storage.All, &partial)
	if !errors.Is(err, boom) || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	want := "timestamp,target,latency_ms,status\n2025-03-01T08:00:00Z,8.8.8.8,1.000,OK\n"
	if partial.String() != want {
		t.Fatalf("got %q want %q", partial.String(), want)
	}
}

func TestSamplesCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	svc := query.NewService(query.Config{}, memory.New(), nil)
	if _, err := Samples(context.Background(), svc, storage.All, &buf); err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if buf.String() != "timestamp,target,latency_ms,status\n" {
		t.Fatalf("got %q", buf.String())
	}
}
