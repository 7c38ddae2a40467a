package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

const backendName = "bolt"

var samplesBucket = []byte("samples")

// DB implements the Storage interface on a single bbolt file.
//
// Keys are the big-endian unix-nano timestamp followed by the bucket sequence,
// so cursor order is timestamp order with insertion order breaking ties.
type DB struct {
	db *bolt.DB
}

var _ storage.Storage = (*DB)(nil)

// New opens (or creates) the bolt file at path. bbolt holds an exclusive file
// lock while open, so a second process fails after the open timeout instead
// of blocking forever.
func New(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, storeErr("open", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(samplesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, storeErr("init", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func storeErr(op string, err error) error {
	return &pkgerrors.StoreError{Backend: backendName, Op: op, Err: err}
}

func (d *DB) AppendSample(ctx context.Context, sample *models.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	err := d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(samplesBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		row := *sample
		row.ID = int64(seq)
		row.Timestamp = row.Timestamp.UTC()
		value, err := json.Marshal(&row)
		if err != nil {
			return err
		}
		if err := b.Put(sampleKey(row.Timestamp, seq), value); err != nil {
			return err
		}
		sample.ID = row.ID
		return nil
	})
	if err != nil {
		return storeErr("append", err)
	}
	return nil
}

func (d *DB) QuerySamples(ctx context.Context, r storage.Range) ([]*models.Sample, error) {
	return storage.Collect(ctx, d.ScanSamples, r)
}

// callbackErr marks errors returned by the caller's scan function so they are
// passed through unwrapped.
type callbackErr struct{ err error }

func (e callbackErr) Error() string { return e.err.Error() }

func (d *DB) ScanSamples(ctx context.Context, r storage.Range, fn func(*models.Sample) error) error {
	if err := r.Validate(); err != nil {
		return err
	}
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(samplesBucket).Cursor()

		var k, v []byte
		if r.From.IsZero() {
			k, v = c.First()
		} else {
			k, v = c.Seek(timePrefix(r.From))
		}
		for ; k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return callbackErr{err}
			}
			if !r.To.IsZero() && keyTime(k) > r.To.UnixNano() {
				break
			}
			sample, err := decodeSample(v)
			if err != nil {
				return err
			}
			if err := fn(sample); err != nil {
				return callbackErr{err}
			}
		}
		return nil
	})
	if cbErr, ok := err.(callbackErr); ok {
		return cbErr.err
	}
	if err != nil {
		return storeErr("scan", err)
	}
	return nil
}

func (d *DB) LatestSample(ctx context.Context) (*models.Sample, error) {
	var latest *models.Sample
	err := d.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket(samplesBucket).Cursor().Last()
		if v == nil {
			return nil
		}
		s, err := decodeSample(v)
		if err != nil {
			return err
		}
		latest = s
		return nil
	})
	if err != nil {
		return nil, storeErr("latest", err)
	}
	return latest, nil
}

func decodeSample(v []byte) (*models.Sample, error) {
	var s models.Sample
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	return &s, nil
}

// Timestamps before 1970 are clamped to zero; probes never produce them.
func timePrefix(t time.Time) []byte {
	ns := t.UnixNano()
	if ns < 0 {
		ns = 0
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ns))
	return buf
}

func sampleKey(t time.Time, seq uint64) []byte {
	key := make([]byte, 16)
	copy(key, timePrefix(t))
	binary.BigEndian.PutUint64(key[8:], seq)
	return key
}

func keyTime(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k[:8]))
}
