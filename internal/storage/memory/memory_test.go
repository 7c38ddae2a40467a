package memory

import (
	"context"
	"testing"
	"time"

	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	"netpulse/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func TestAppendOutOfOrderStaysSorted(t *testing.T) {
	s := New()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, off := range []int{0, 5, 2, 5, 1} {
		if err := s.AppendSample(context.Background(), models.NewOKSample(base.Add(time.Duration(off)*time.Second), "t", time.Millisecond)); err != nil {
			t.Fatalf("AppendSample: %v", err)
		}
	}
	got, err := s.QuerySamples(context.Background(), storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("samples out of order at %d", i)
		}
	}
	if s.Len() != 5 {
		t.Fatalf("Len=%d", s.Len())
	}
}

func TestReturnedSamplesAreCopies(t *testing.T) {
	s := New()
	if err := s.AppendSample(context.Background(), models.NewOKSample(time.Now(), "t", 3*time.Millisecond)); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	got, _ := s.LatestSample(context.Background())
	*got.LatencyMS = 999

	again, _ := s.LatestSample(context.Background())
	if *again.LatencyMS != 3 {
		t.Fatalf("stored sample was mutated through a returned pointer")
	}
}

func TestQueryAndScanReturnCopies(t *testing.T) {
	s := New()
	if err := s.AppendSample(context.Background(), models.NewOKSample(time.Now(), "t", 3*time.Millisecond)); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}

	got, err := s.QuerySamples(context.Background(), storage.All)
	if err != nil || len(got) != 1 {
		t.Fatalf("QuerySamples: %v (%d rows)", err, len(got))
	}
	*got[0].LatencyMS = 999

	err = s.ScanSamples(context.Background(), storage.All, func(sample *models.Sample) error {
		*sample.LatencyMS = 555
		return nil
	})
	if err != nil {
		t.Fatalf("ScanSamples: %v", err)
	}

	latest, _ := s.LatestSample(context.Background())
	if *latest.LatencyMS != 3 {
		t.Fatalf("stored latency=%v after mutating returned samples", *latest.LatencyMS)
	}
}
