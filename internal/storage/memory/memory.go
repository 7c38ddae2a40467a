package memory

import (
	"context"
	"sort"
	"sync"

	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
)

// Store keeps samples in process memory. Nothing survives a restart; it backs
// tests and the "memory" driver for dry runs.
type Store struct {
	mu      sync.RWMutex
	samples []models.Sample
	nextID  int64
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{samples: make([]models.Sample, 0, 128)}
}

func (m *Store) AppendSample(ctx context.Context, s *models.Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID

	row := copySample(s)
	// Expected path: timestamps arrive non-decreasing. Late rows go after any
	// existing rows with the same timestamp.
	n := len(m.samples)
	if n == 0 || !row.Timestamp.Before(m.samples[n-1].Timestamp) {
		m.samples = append(m.samples, row)
		return nil
	}
	idx := sort.Search(n, func(i int) bool {
		return m.samples[i].Timestamp.After(row.Timestamp)
	})
	m.samples = append(m.samples, models.Sample{})
	copy(m.samples[idx+1:], m.samples[idx:])
	m.samples[idx] = row
	return nil
}

func (m *Store) QuerySamples(ctx context.Context, r storage.Range) ([]*models.Sample, error) {
	return storage.Collect(ctx, m.ScanSamples, r)
}

func (m *Store) ScanSamples(ctx context.Context, r storage.Range, fn func(*models.Sample) error) error {
	if err := r.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	window := m.window(r)
	m.mu.RUnlock()

	for i := range window {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := window[i]
		if err := fn(&s); err != nil {
			return err
		}
	}
	return nil
}

func (m *Store) LatestSample(ctx context.Context) (*models.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.samples) == 0 {
		return nil, nil
	}
	s := copySample(&m.samples[len(m.samples)-1])
	return &s, nil
}

func (m *Store) Close() error { return nil }

// Len returns the number of stored samples.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples)
}

// window copies the rows inside r. Caller holds the read lock.
func (m *Store) window(r storage.Range) []models.Sample {
	lo := 0
	if !r.From.IsZero() {
		lo = sort.Search(len(m.samples), func(i int) bool {
			return !m.samples[i].Timestamp.Before(r.From)
		})
	}
	hi := len(m.samples)
	if !r.To.IsZero() {
		hi = sort.Search(len(m.samples), func(i int) bool {
			return m.samples[i].Timestamp.After(r.To)
		})
	}
	if lo >= hi {
		return nil
	}
	out := make([]models.Sample, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, copySample(&m.samples[i]))
	}
	return out
}

func copySample(s *models.Sample) models.Sample {
	out := *s
	if s.LatencyMS != nil {
		v := *s.LatencyMS
		out.LatencyMS = &v
	}
	return out
}
