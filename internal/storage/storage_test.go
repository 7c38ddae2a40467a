package storage

import (
	"errors"
	"testing"
	"time"

	pkgerrors "netpulse/pkg/errors"
)

func TestRange_ValidateAndContains(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	if err := (Range{From: t1, To: t0}).Validate(); !errors.Is(err, pkgerrors.ErrInvalidWindow) {
		t.Fatalf("want ErrInvalidWindow, got %v", err)
	}
	for _, r := range []Range{All, {From: t0}, {To: t1}, {From: t0, To: t0}, {From: t0, To: t1}} {
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate(%+v)=%v", r, err)
		}
	}

	r := Range{From: t0, To: t1}
	cases := []struct {
		ts   time.Time
		want bool
	}{
		{t0, true},
		{t1, true},
		{t0.Add(30 * time.Minute), true},
		{t0.Add(-time.Nanosecond), false},
		{t1.Add(time.Nanosecond), false},
	}
	for _, c := range cases {
		if got := r.Contains(c.ts); got != c.want {
			t.Fatalf("Contains(%s)=%v want %v", c.ts, got, c.want)
		}
	}
	if !All.Contains(t0) || !All.Unbounded() || r.Unbounded() {
		t.Fatalf("unbounded range misbehaves")
	}
}
