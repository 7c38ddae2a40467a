package sqlite

const schema = `
-- Append-only probe log. One row per scheduler tick.
CREATE TABLE IF NOT EXISTS samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    target TEXT NOT NULL,
    latency REAL,
    status TEXT NOT NULL CHECK (status IN ('OK', 'TIMEOUT', 'ERROR'))
);

-- Window queries and "latest" lookups
CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(timestamp, id);

-- Samples are never rewritten
CREATE TRIGGER IF NOT EXISTS samples_no_update BEFORE UPDATE ON samples
BEGIN
    SELECT RAISE(ABORT, 'samples are append-only');
END;

CREATE TRIGGER IF NOT EXISTS samples_no_delete BEFORE DELETE ON samples
BEGIN
    SELECT RAISE(ABORT, 'samples are append-only');
END;
`

// runMigrations executes the database schema
func runMigrations(db *DB) error {
	if _, err := db.db.Exec(schema); err != nil {
		return err
	}
	return nil
}
