package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	"netpulse/internal/storage/storagetest"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "netpulse.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return db
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return newTestDB(t) })
}

func TestSamplesAreAppendOnly(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	sample := models.NewOKSample(time.Now(), "8.8.8.8", 12*time.Millisecond)
	if err := db.AppendSample(context.Background(), sample); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	if _, err := db.db.Exec(`UPDATE samples SET status = 'ERROR'`); err == nil {
		t.Fatalf("expected UPDATE to be rejected")
	}
	if _, err := db.db.Exec(`DELETE FROM samples`); err == nil {
		t.Fatalf("expected DELETE to be rejected")
	}
	got, err := db.QuerySamples(context.Background(), storage.All)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(got) != 1 || got[0].Status != models.StatusOK {
		t.Fatalf("sample changed: %+v", got)
	}
}

func TestTimestampsRoundTripInUTC(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2025, 6, 1, 15, 4, 5, 987654321, loc)
	if err := db.AppendSample(context.Background(), models.NewOKSample(ts, "1.1.1.1", 7*time.Millisecond)); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	latest, err := db.LatestSample(context.Background())
	if err != nil {
		t.Fatalf("LatestSample: %v", err)
	}
	if !latest.Timestamp.Equal(ts) {
		t.Fatalf("timestamp %s want %s", latest.Timestamp, ts)
	}
	if latest.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", latest.Timestamp.Location())
	}
}
