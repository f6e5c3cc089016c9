// Package index imports captured records into a SQLite database so a
// finished capture can be queried with plain SQL.
package index

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/admbahm/devinsight/internal/model"
)

// DB wraps the SQLite connection.
type DB struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps imports usable while someone queries alongside.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		tag TEXT NOT NULL,
		message TEXT NOT NULL,
		device_id TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_logs_session ON logs(session);
	CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
	CREATE INDEX IF NOT EXISTS idx_logs_tag ON logs(tag);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// DeleteSession removes every record imported under a session and
// returns how many rows went away. Importing the same capture twice
// must replace its rows, not double them.
func (d *DB) DeleteSession(session string) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM logs WHERE session = ?`, session)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ImportBatch inserts records under one session in a single transaction,
// preserving their order, and returns the number inserted.
func (d *DB) ImportBatch(session string, recs []model.StoredLog) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO logs (session, timestamp, level, tag, message, device_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.Exec(session, rec.Timestamp.Format(time.RFC3339Nano),
			rec.Level, rec.Tag, rec.Message, rec.DeviceID)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// LevelCounts returns the number of records per level for a session. An
// empty session counts all records.
func (d *DB) LevelCounts(session string) (map[string]int, error) {
	query := `SELECT level, COUNT(*) FROM logs GROUP BY level`
	args := []any{}
	if session != "" {
		query = `SELECT level, COUNT(*) FROM logs WHERE session = ? GROUP BY level`
		args = append(args, session)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

// QueryByTag returns recent records for a tag, newest first.
func (d *DB) QueryByTag(tag string, limit int) ([]model.StoredLog, error) {
	rows, err := d.db.Query(`
		SELECT timestamp, level, tag, message, COALESCE(device_id, '')
		FROM logs
		WHERE tag = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, tag, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// QueryByLevel returns recent records at a level, newest first.
func (d *DB) QueryByLevel(level string, limit int) ([]model.StoredLog, error) {
	rows, err := d.db.Query(`
		SELECT timestamp, level, tag, message, COALESCE(device_id, '')
		FROM logs
		WHERE level = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]model.StoredLog, error) {
	var recs []model.StoredLog
	for rows.Next() {
		var rec model.StoredLog
		var tsStr string

		if err := rows.Scan(&tsStr, &rec.Level, &rec.Tag, &rec.Message, &rec.DeviceID); err != nil {
			return nil, err
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
