package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"netpulse/internal/storage"
	"netpulse/internal/storage/models"
	pkgerrors "netpulse/pkg/errors"
)

const backendName = "sqlite"

// timeLayout is fixed-width UTC so that lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

var _ storage.Storage = (*DB)(nil)

// New creates a new SQLite storage instance. The database runs in WAL mode so
// that readers in other processes never block the probe writer.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storeErr("open", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dbPath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &DB{db: db}

	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, storeErr("migrate", err)
	}

	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func storeErr(op string, err error) error {
	return &pkgerrors.StoreError{Backend: backendName, Op: op, Err: err}
}

// ─── Sample operations ──────────────────────────────────────────────────────

func (d *DB) AppendSample(ctx context.Context, sample *models.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	var latency sql.NullFloat64
	if sample.LatencyMS != nil {
		latency = sql.NullFloat64{Float64: *sample.LatencyMS, Valid: true}
	}

	query := `
		INSERT INTO samples (timestamp, target, latency, status)
		VALUES (?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, query,
		formatTime(sample.Timestamp), sample.Target, latency, string(sample.Status),
	)
	if err != nil {
		return storeErr("append", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storeErr("append", err)
	}
	sample.ID = id
	return nil
}

func (d *DB) QuerySamples(ctx context.Context, r storage.Range) ([]*models.Sample, error) {
	return storage.Collect(ctx, d.ScanSamples, r)
}

func (d *DB) ScanSamples(ctx context.Context, r storage.Range, fn func(*models.Sample) error) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var (
		where []string
		args  []interface{}
	)
	if !r.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(r.From))
	}
	if !r.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, formatTime(r.To))
	}

	query := `SELECT id, timestamp, target, latency, status FROM samples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storeErr("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return storeErr("scan", err)
		}
		if err := fn(sample); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storeErr("query", err)
	}
	return nil
}

func (d *DB) LatestSample(ctx context.Context) (*models.Sample, error) {
	query := `
		SELECT id, timestamp, target, latency, status
		FROM samples
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	sample, err := scanSample(d.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("latest", err)
	}
	return sample, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(row rowScanner) (*models.Sample, error) {
	var (
		sample  models.Sample
		ts      string
		latency sql.NullFloat64
		status  string
	)
	if err := row.Scan(&sample.ID, &ts, &sample.Target, &latency, &status); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("sample %d: bad timestamp %q: %w", sample.ID, ts, err)
	}
	sample.Timestamp = parsed
	sample.Status = models.Status(status)
	if latency.Valid {
		v := latency.Float64
		sample.LatencyMS = &v
	}
	return &sample, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
