package models

import (
	"fmt"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

// Status is the outcome class of one probe tick.
type Status string

const (
	StatusOK      Status = "OK"
	StatusTimeout Status = "TIMEOUT"
	StatusError   Status = "ERROR"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusTimeout, StatusError:
		return true
	}
	return false
}

// IsFailure reports whether s counts towards an outage.
func (s Status) IsFailure() bool { return s != StatusOK }

// Sample is the stored outcome of one scheduler tick, after failover resolution.
type Sample struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	LatencyMS *float64  `json:"latency_ms,omitempty"` // NULL unless Status is OK
	Status    Status    `json:"status"`
}

// NewOKSample builds a successful sample measured against target.
func NewOKSample(ts time.Time, target string, latency time.Duration) *Sample {
	ms := float64(latency) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	return &Sample{Timestamp: ts, Target: target, LatencyMS: &ms, Status: StatusOK}
}

// NewFailedSample builds a failing sample. status must not be StatusOK.
func NewFailedSample(ts time.Time, target string, status Status) *Sample {
	return &Sample{Timestamp: ts, Target: target, Status: status}
}

// Latency returns the measured latency, or zero and false for failing samples.
func (s *Sample) Latency() (time.Duration, bool) {
	if s.LatencyMS == nil {
		return 0, false
	}
	return time.Duration(*s.LatencyMS * float64(time.Millisecond)), true
}

// Validate enforces status == OK <=> latency present and non-negative.
func (s *Sample) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil sample", pkgerrors.ErrInvalidSample)
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", pkgerrors.ErrInvalidSample)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", pkgerrors.ErrInvalidSample, s.Status)
	}
	switch {
	case s.Status == StatusOK && s.LatencyMS == nil:
		return fmt.Errorf("%w: OK sample without latency", pkgerrors.ErrInvalidSample)
	case s.Status == StatusOK && *s.LatencyMS < 0:
		return fmt.Errorf("%w: negative latency %.3f", pkgerrors.ErrInvalidSample, *s.LatencyMS)
	case s.Status != StatusOK && s.LatencyMS != nil:
		return fmt.Errorf("%w: %s sample with latency", pkgerrors.ErrInvalidSample, s.Status)
	}
	return nil
}
