package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"netpulse/internal/storage"
	pkgerrors "netpulse/pkg/errors"
)

// Window is a relative lookback ending now, or all data.
type Window string

const (
	WindowHour  Window = "1h"
	WindowDay   Window = "24h"
	WindowWeek  Window = "7d"
	WindowMonth Window = "30d"
	WindowAll   Window = "all"

	DefaultWindow = WindowDay
)

// Windows lists every supported window, shortest first.
var Windows = []Window{WindowHour, WindowDay, WindowWeek, WindowMonth, WindowAll}

var lookbacks = map[Window]time.Duration{
	WindowHour:  time.Hour,
	WindowDay:   24 * time.Hour,
	WindowWeek:  7 * 24 * time.Hour,
	WindowMonth: 30 * 24 * time.Hour,
}

// ParseWindow parses a window name. The empty string selects DefaultWindow.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return DefaultWindow, nil
	case "1d":
		return WindowDay, nil
	}
	w := Window(s)
	if w == WindowAll {
		return w, nil
	}
	if _, ok := lookbacks[w]; ok {
		return w, nil
	}
	return "", fmt.Errorf("%w: %q (available: 1h, 24h, 7d, 30d, all)", pkgerrors.ErrInvalidWindow, s)
}

// Lookback returns the window length; false means no lower bound.
func (w Window) Lookback() (time.Duration, bool) {
	d, ok := lookbacks[w]
	return d, ok
}

func (w Window) String() string { return string(w) }

// Next cycles through Windows.
func (w Window) Next() Window {
	for i, candidate := range Windows {
		if candidate == w {
			return Windows[(i+1)%len(Windows)]
		}
	}
	return DefaultWindow
}

// Prev cycles through Windows backwards.
func (w Window) Prev() Window {
	for i, candidate := range Windows {
		if candidate == w {
			return Windows[(i+len(Windows)-1)%len(Windows)]
		}
	}
	return DefaultWindow
}

// RangeAt resolves w against now. Only the lower bound is set, so samples
// written after now stay visible.
func (w Window) RangeAt(now time.Time) storage.Range {
	d, ok := w.Lookback()
	if !ok {
		return storage.All
	}
	return storage.Range{From: now.Add(-d)}
}

// ParseTime accepts the loose date formats operators type, e.g.
// "2025-03-01 14:00" or "03/01/2025". Times without a zone are local.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseLocal(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse time %q: %v", pkgerrors.ErrInvalidWindow, s, err)
	}
	return t, nil
}

// ParseRange builds a range from optional from/to strings. When both are
// empty the window applies; otherwise the explicit bounds win.
func ParseRange(w Window, from, to string, now time.Time) (storage.Range, error) {
	if from == "" && to == "" {
		return w.RangeAt(now), nil
	}
	var r storage.Range
	var err error
	if from != "" {
		if r.From, err = ParseTime(from); err != nil {
			return storage.Range{}, err
		}
	}
	if to != "" {
		if r.To, err = ParseTime(to); err != nil {
			return storage.Range{}, err
		}
	}
	if err := r.Validate(); err != nil {
		return storage.Range{}, err
	}
	return r, nil
}
