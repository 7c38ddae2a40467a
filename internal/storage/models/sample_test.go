package models

import (
	"errors"
	"testing"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

func TestSample_Validate(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	neg := -1.0
	zero := 0.0

	cases := []struct {
		name    string
		sample  *Sample
		wantErr bool
	}{
		{"ok with latency", NewOKSample(ts, "8.8.8.8", 12*time.Millisecond), false},
		{"ok with zero latency", &Sample{Timestamp: ts, Target: "a", LatencyMS: &zero, Status: StatusOK}, false},
		{"timeout without latency", NewFailedSample(ts, "8.8.8.8", StatusTimeout), false},
		{"error without latency", NewFailedSample(ts, "8.8.8.8", StatusError), false},
		{"ok without latency", &Sample{Timestamp: ts, Target: "a", Status: StatusOK}, true},
		{"ok with negative latency", &Sample{Timestamp: ts, Target: "a", LatencyMS: &neg, Status: StatusOK}, true},
		{"timeout with latency", &Sample{Timestamp: ts, Target: "a", LatencyMS: &zero, Status: StatusTimeout}, true},
		{"unknown status", &Sample{Timestamp: ts, Target: "a", Status: "DOWN"}, true},
		{"zero timestamp", NewFailedSample(time.Time{}, "a", StatusError), true},
		{"nil", nil, true},
	}
	for _, c := range cases {
		err := c.sample.Validate()
		if (err != nil) != c.wantErr {
			t.Fatalf("%s: Validate()=%v wantErr=%v", c.name, err, c.wantErr)
		}
		if err != nil && !errors.Is(err, pkgerrors.ErrInvalidSample) {
			t.Fatalf("%s: error %v does not match ErrInvalidSample", c.name, err)
		}
	}
}

func TestSample_Latency(t *testing.T) {
	s := NewOKSample(time.Now(), "1.1.1.1", 1500*time.Microsecond)
	d, ok := s.Latency()
	if !ok || d != 1500*time.Microsecond {
		t.Fatalf("latency=%v ok=%v", d, ok)
	}
	if *s.LatencyMS != 1.5 {
		t.Fatalf("latency_ms=%v", *s.LatencyMS)
	}

	f := NewFailedSample(time.Now(), "1.1.1.1", StatusTimeout)
	if _, ok := f.Latency(); ok {
		t.Fatalf("failing sample must not report latency")
	}
	if !f.Status.IsFailure() || StatusOK.IsFailure() {
		t.Fatalf("IsFailure misclassified")
	}
}
