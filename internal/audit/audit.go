// Package audit persists the Remover's operation history to SQLite.
// Grounded on internal/database/database.go's DeletionDB (WAL-mode
// open, schema-versioned init, one row per event) adapted from the
// teacher's age/disk/stack reason columns to the spec's simpler
// OperationAuditRow shape: {path, category, bytes, removed_at,
// trashed, error}.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection backing the removal audit trail.
type DB struct {
	db *sql.DB
}

// Row is one OperationAuditRow.
type Row struct {
	ID        int64
	Path      string
	Category  string
	Bytes     int64
	RemovedAt time.Time
	Trashed   bool
	Error     string
}

// Open creates or opens the sqlite database at dbPath, enabling WAL mode
// the way the teacher's NewDeletionDB does for concurrent read access
// from the query CLI while the daemon writes.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit db directory %s: %w", dir, err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if _, err := sqlDB.Exec("SELECT 1"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize audit db (check permissions on %s): %w", dbPath, err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	db := &DB{db: sqlDB}
	if err := db.initSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS removals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		category TEXT,
		bytes INTEGER NOT NULL,
		removed_at DATETIME NOT NULL,
		trashed INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_removals_removed_at ON removals(removed_at);
	CREATE INDEX IF NOT EXISTS idx_removals_category ON removals(category);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := d.db.Exec(schema)
	return err
}

// RecordRemoval inserts one removal outcome.
func (d *DB) RecordRemoval(row Row) error {
	_, err := d.db.Exec(
		`INSERT INTO removals (path, category, bytes, removed_at, trashed, error) VALUES (?, ?, ?, ?, ?, ?)`,
		row.Path, row.Category, row.Bytes, row.RemovedAt, row.Trashed, row.Error,
	)
	return err
}

// Recent returns the most recent n removal rows, newest first.
func (d *DB) Recent(n int) ([]Row, error) {
	rows, err := d.db.Query(
		`SELECT id, path, category, bytes, removed_at, trashed, error FROM removals ORDER BY removed_at DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var trashed int
		if err := rows.Scan(&r.ID, &r.Path, &r.Category, &r.Bytes, &r.RemovedAt, &trashed, &r.Error); err != nil {
			return nil, err
		}
		r.Trashed = trashed != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}
