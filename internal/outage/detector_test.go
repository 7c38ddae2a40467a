package outage

import (
	"reflect"
	"testing"
	"time"

	"netpulse/internal/storage/models"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// series builds one sample per second starting at t0 from a status string:
// '.' OK, 'T' TIMEOUT, 'E' ERROR.
func series(pattern string) []*models.Sample {
	out := make([]*models.Sample, 0, len(pattern))
	for i, c := range pattern {
		ts := t0.Add(time.Duration(i) * time.Second)
		switch c {
		case '.':
			out = append(out, models.NewOKSample(ts, "8.8.8.8", 10*time.Millisecond))
		case 'T':
			out = append(out, models.NewFailedSample(ts, "8.8.8.8", models.StatusTimeout))
		case 'E':
			out = append(out, models.NewFailedSample(ts, "8.8.8.8", models.StatusError))
		}
	}
	return out
}

func sec(n int) time.Time { return t0.Add(time.Duration(n) * time.Second) }

func TestDetect_MixedRun(t *testing.T) {
	got := Detect(series(".TTE."), time.Second, time.Second)
	// (3-1)s + 1s interval
	want := []Episode{{Start: sec(1), End: sec(3), Duration: 3 * time.Second, Failures: 3, Kind: ClassificationLabel}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestDetect_ScenarioDurationIncludesInterval(t *testing.T) {
	got := Detect(series(".TTE."), time.Second, time.Second)
	if len(got) != 1 {
		t.Fatalf("expected one episode, got %d", len(got))
	}
	ep := got[0]
	if !ep.Start.Equal(sec(1)) || !ep.End.Equal(sec(3)) {
		t.Fatalf("bounds %s..%s", ep.Start, ep.End)
	}
	if ep.End.Sub(ep.Start)+time.Second != ep.Duration {
		t.Fatalf("duration %s does not equal (end-start)+interval", ep.Duration)
	}
	if ep.Open {
		t.Fatalf("closed run marked open")
	}
}

func TestDetect_IsolatedFailure(t *testing.T) {
	got := Detect(series(".T."), time.Second, time.Second)
	if len(got) != 1 || got[0].Duration != time.Second || got[0].Failures != 1 {
		t.Fatalf("expected one episode of one interval, got %+v", got)
	}

	got = Detect(series(".T."), 500*time.Millisecond, time.Second)
	if len(got) != 0 {
		t.Fatalf("episode shorter than min duration must be dropped, got %+v", got)
	}
}

func TestDetect_EmptyAndAllOK(t *testing.T) {
	if got := Detect(nil, time.Second, time.Second); len(got) != 0 {
		t.Fatalf("empty input gave %+v", got)
	}
	if got := Detect(series("......"), time.Second, time.Second); len(got) != 0 {
		t.Fatalf("all OK gave %+v", got)
	}
}

func TestDetect_OpenRunEndsAtLastSample(t *testing.T) {
	got := Detect(series("..TTT"), time.Second, time.Second)
	if len(got) != 1 {
		t.Fatalf("expected one episode, got %+v", got)
	}
	ep := got[0]
	if !ep.End.Equal(sec(4)) || !ep.Open || ep.Duration != 3*time.Second {
		t.Fatalf("unexpected open episode %+v", ep)
	}
}

func TestDetect_DescendingByStart(t *testing.T) {
	got := Detect(series("T.TT..E.TTT"), time.Second, time.Second)
	if len(got) != 4 {
		t.Fatalf("expected 4 episodes, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Start.After(got[i].Start) {
			t.Fatalf("episodes not in descending start order: %+v", got)
		}
	}
	if !got[0].Start.Equal(sec(8)) || !got[3].Start.Equal(sec(0)) {
		t.Fatalf("unexpected order %+v", got)
	}
	for _, ep := range got {
		if ep.Kind != ClassificationLabel {
			t.Fatalf("kind=%q", ep.Kind)
		}
	}
}

func TestDetect_Idempotent(t *testing.T) {
	samples := series(".TT..E..TTT.T")
	a := Detect(samples, time.Second, time.Second)
	b := Detect(samples, time.Second, time.Second)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Detect is not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestDetect_LaterOKSamplesDoNotChangeWindow(t *testing.T) {
	samples := series(".TT.E.")
	before := Detect(samples, time.Second, time.Second)

	extended := append([]*models.Sample(nil), samples...)
	for i := 0; i < 5; i++ {
		extended = append(extended, models.NewOKSample(sec(10+i), "8.8.8.8", time.Millisecond))
	}
	var inWindow []*models.Sample
	for _, s := range extended {
		if !s.Timestamp.After(sec(5)) {
			inWindow = append(inWindow, s)
		}
	}
	after := Detect(inWindow, time.Second, time.Second)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("window result changed:\n%+v\n%+v", before, after)
	}
}

func TestDetector_IncrementalMatchesDetect(t *testing.T) {
	samples := series("TT..T...EEE..")
	d := NewDetector(time.Second, time.Second)
	for _, s := range samples[:6] {
		d.Observe(s)
	}
	mid := d.Episodes()
	if len(mid) != 2 || !mid[0].Start.Equal(sec(4)) {
		t.Fatalf("unexpected intermediate episodes %+v", mid)
	}
	for _, s := range samples[6:] {
		d.Observe(s)
	}
	if got, want := d.Episodes(), Detect(samples, time.Second, time.Second); !reflect.DeepEqual(got, want) {
		t.Fatalf("incremental %+v\nbatch %+v", got, want)
	}
}

func TestEpisodeSeconds(t *testing.T) {
	ep := Episode{Duration: 3249 * time.Millisecond}
	if ep.Seconds() != 3.2 {
		t.Fatalf("Seconds=%v", ep.Seconds())
	}
	ep.Duration = 3250 * time.Millisecond
	if ep.Seconds() != 3.3 {
		t.Fatalf("Seconds=%v", ep.Seconds())
	}
}
