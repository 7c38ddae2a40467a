package outage

import (
	"math"
	"sort"
	"time"

	"netpulse/internal/storage/models"
)

// ClassificationLabel is reported for every episode. TIMEOUT and ERROR
// samples both count as failures and are not told apart here.
const ClassificationLabel = "timeout/packet-loss"

// DefaultMinDuration drops single-probe glitches shorter than a second.
const DefaultMinDuration = time.Second

// Episode is a maximal run of consecutive failing samples.
type Episode struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	Failures int           `json:"failures"`
	Open     bool          `json:"open"` // run reaches the last sample seen
	Kind     string        `json:"kind"`
}

// Detector groups a time-ordered sample stream into episodes with a single
// pass. Feed it with Observe and read the result with Episodes.
type Detector struct {
	interval    time.Duration
	minDuration time.Duration

	inRun    bool
	runStart time.Time
	runEnd   time.Time
	runCount int

	closed []Episode
}

// NewDetector creates a detector. interval is the probe period added to each
// run; episodes shorter than minDuration are discarded.
func NewDetector(interval, minDuration time.Duration) *Detector {
	return &Detector{interval: interval, minDuration: minDuration}
}

// Observe feeds the next sample. Samples must arrive in ascending timestamp order.
func (d *Detector) Observe(s *models.Sample) {
	if s.Status.IsFailure() {
		if !d.inRun {
			d.inRun = true
			d.runStart = s.Timestamp
			d.runCount = 0
		}
		d.runEnd = s.Timestamp
		d.runCount++
		return
	}
	if d.inRun {
		d.closeRun(false)
	}
}

func (d *Detector) closeRun(open bool) {
	ep := d.episode(open)
	d.inRun = false
	if ep.Duration >= d.minDuration {
		d.closed = append(d.closed, ep)
	}
}

func (d *Detector) episode(open bool) Episode {
	return Episode{
		Start:    d.runStart,
		End:      d.runEnd,
		Duration: d.runEnd.Sub(d.runStart) + d.interval,
		Failures: d.runCount,
		Open:     open,
		Kind:     ClassificationLabel,
	}
}

// Episodes returns the episodes seen so far, most recent start first. A run
// still in progress is reported up to its last failing sample and marked
// Open. The detector can keep observing afterwards.
func (d *Detector) Episodes() []Episode {
	out := make([]Episode, 0, len(d.closed)+1)
	out = append(out, d.closed...)
	if d.inRun {
		if ep := d.episode(true); ep.Duration >= d.minDuration {
			out = append(out, ep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.After(out[j].Start)
	})
	return out
}

// Detect converts an ascending sample sequence into outage episodes, most
// recent first. The result depends only on its arguments.
func Detect(samples []*models.Sample, interval, minDuration time.Duration) []Episode {
	d := NewDetector(interval, minDuration)
	for _, s := range samples {
		d.Observe(s)
	}
	return d.Episodes()
}

// Seconds returns the duration in seconds rounded to one decimal, the
// resolution operators read outage tables in.
func (e Episode) Seconds() float64 {
	return math.Round(e.Duration.Seconds()*10) / 10
}
