package export

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"netpulse/internal/outage"
	"netpulse/internal/query"
	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
)

// SampleRow is one CSV line of the raw sample log.
type SampleRow struct {
	Timestamp string `csv:"timestamp"`
	Target    string `csv:"target"`
	LatencyMS string `csv:"latency_ms"` // empty for failing samples
	Status    string `csv:"status"`
}

// OutageRow is one CSV line of the outage table.
type OutageRow struct {
	Start           string  `csv:"start"`
	End             string  `csv:"end"`
	DurationSeconds float64 `csv:"duration_s"`
	Failures        int     `csv:"failures"`
	Open            bool    `csv:"open"`
	Kind            string  `csv:"kind"`
}

// NewSampleRow converts a sample. Timestamps are written in UTC.
func NewSampleRow(s *models.Sample) SampleRow {
	row := SampleRow{
		Timestamp: s.Timestamp.UTC().Format(time.RFC3339Nano),
		Target:    s.Target,
		Status:    string(s.Status),
	}
	if s.LatencyMS != nil {
		row.LatencyMS = strconv.FormatFloat(*s.LatencyMS, 'f', 3, 64)
	}
	return row
}

// NewOutageRow converts an episode.
func NewOutageRow(ep outage.Episode) OutageRow {
	return OutageRow{
		Start:           ep.Start.UTC().Format(time.RFC3339),
		End:             ep.End.UTC().Format(time.RFC3339),
		DurationSeconds: ep.Seconds(),
		Failures:        ep.Failures,
		Open:            ep.Open,
		Kind:            ep.Kind,
	}
}

// WriteOutages writes episodes as CSV with a header line.
func WriteOutages(w io.Writer, episodes []outage.Episode) error {
	rows := make([]*OutageRow, 0, len(episodes))
	for _, ep := range episodes {
		row := NewOutageRow(ep)
		rows = append(rows, &row)
	}
	return gocsv.Marshal(rows, w)
}

// Samples streams every sample of r from the query service, one CSV row per
// scanned sample. The header goes out with the first row, so a store failure
// before any row leaves w untouched.
func Samples(ctx context.Context, svc *query.Service, r storage.Range, w io.Writer) (int, error) {
	out := gocsv.DefaultCSVWriter(w)
	n := 0
	err := svc.Samples(ctx, r, func(s *models.Sample) error {
		row := NewSampleRow(s)
		rows := []*SampleRow{&row}
		n++
		if n == 1 {
			return gocsv.MarshalCSV(rows, out)
		}
		return gocsv.MarshalCSVWithoutHeaders(rows, out)
	})
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, gocsv.MarshalCSV([]*SampleRow{}, out)
	}
	return n, nil
}

// Outages exports the episodes of r, newest first. limit <= 0 exports all.
func Outages(ctx context.Context, svc *query.Service, r storage.Range, limit int, w io.Writer) (int, error) {
	episodes, err := svc.ListOutages(ctx, r, limit)
	if err != nil {
		return 0, err
	}
	return len(episodes), WriteOutages(w, episodes)
}
