package storage

import (
	"context"
	"fmt"
	"time"

	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

// SampleWriter is the append side of the sample log. Only the probe scheduler
// holds one.
type SampleWriter interface {
	// AppendSample atomically persists one sample and sets its ID.
	AppendSample(ctx context.Context, sample *models.Sample) error
}

// SampleReader is the read side of the sample log.
type SampleReader interface {
	// QuerySamples returns every sample inside r, ascending by timestamp
	// (insertion order for equal timestamps).
	QuerySamples(ctx context.Context, r Range) ([]*models.Sample, error)
	// ScanSamples streams the same sequence as QuerySamples into fn.
	// Returning an error from fn stops the scan and is returned as is.
	ScanSamples(ctx context.Context, r Range, fn func(*models.Sample) error) error
	// LatestSample returns the most recent sample, or nil when the store is empty.
	LatestSample(ctx context.Context) (*models.Sample, error)
}

// Storage defines the interface for sample persistence
type Storage interface {
	SampleWriter
	SampleReader

	// Close closes the storage connection
	Close() error
}

// Range is an inclusive timestamp window. A zero bound is unbounded on that side.
type Range struct {
	From time.Time
	To   time.Time
}

// All is the unbounded range.
var All = Range{}

// Validate rejects windows whose lower bound lies after the upper bound.
func (r Range) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("%w: from %s is after to %s",
			pkgerrors.ErrInvalidWindow, r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether ts falls inside the window.
func (r Range) Contains(ts time.Time) bool {
	if !r.From.IsZero() && ts.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && ts.After(r.To) {
		return false
	}
	return true
}

// Unbounded reports whether neither side is set.
func (r Range) Unbounded() bool { return r.From.IsZero() && r.To.IsZero() }

// Collect drains a scan into a slice. Backends use it to implement QuerySamples.
func Collect(ctx context.Context, scan func(ctx context.Context, r Range, fn func(*models.Sample) error) error, r Range) ([]*models.Sample, error) {
	var out []*models.Sample
	err := scan(ctx, r, func(s *models.Sample) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
