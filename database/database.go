package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"findidentical/logging"
	"findidentical/types"

	_ "github.com/mattn/go-sqlite3"
)

// lookupChunk keeps IN lists below sqlite's host parameter limit
const lookupChunk = 500

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS dimensions (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		channels INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		dir1 TEXT NOT NULL,
		dir2 TEXT,
		image_count1 INTEGER NOT NULL,
		image_count2 INTEGER NOT NULL DEFAULT 0,
		malformed_count INTEGER NOT NULL DEFAULT 0,
		group_count INTEGER NOT NULL DEFAULT 0,
		identical_count INTEGER NOT NULL DEFAULT 0,
		exhaustive INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS run_groups (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		bucket TEXT NOT NULL,
		group_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		collection INTEGER NOT NULL,
		path TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_groups_run ON run_groups(run_id);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	// Databases created before exhaustive runs were recorded lack the column
	var hasExhaustiveColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name='exhaustive'").Scan(&hasExhaustiveColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for exhaustive column: %v", err)
	}
	if !hasExhaustiveColumn {
		if _, err = db.Exec("ALTER TABLE runs ADD COLUMN exhaustive INTEGER NOT NULL DEFAULT 0;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding exhaustive column: %v", err)
		}
		logging.DebugLog("Added 'exhaustive' column to existing database schema")
	}

	return db, nil
}

// OpenDatabase opens an existing database connection
func OpenDatabase(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no database at %s: %w", dbPath, err)
	}
	return sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
}

// LookupDimensions returns the cached entries for the given absolute paths
func LookupDimensions(db *sql.DB, paths []string) (map[string]types.FileDimension, error) {
	out := make(map[string]types.FileDimension, len(paths))
	for start := 0; start < len(paths); start += lookupChunk {
		end := start + lookupChunk
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[start:end]

		args := make([]interface{}, len(chunk))
		for i, p := range chunk {
			args[i] = p
		}
		query := `SELECT path, size, modified_at, width, height, channels FROM dimensions WHERE path IN (?` +
			strings.Repeat(",?", len(chunk)-1) + `)`

		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, fmt.Errorf("dimension lookup failed: %v", err)
		}
		for rows.Next() {
			var e types.FileDimension
			var modified int64
			if err := rows.Scan(&e.Path, &e.Size, &modified, &e.Dim.Width, &e.Dim.Height, &e.Dim.Channels); err != nil {
				rows.Close()
				return nil, fmt.Errorf("dimension lookup failed: %v", err)
			}
			e.ModTime = time.Unix(0, modified)
			out[e.Path] = e
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StoreDimensions writes probe results in a single transaction
func StoreDimensions(db *sql.DB, entries []types.FileDimension) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO dimensions (path, size, modified_at, width, height, channels)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("cannot prepare dimension insert: %v", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Path, e.Size, e.ModTime.UnixNano(), e.Dim.Width, e.Dim.Height, e.Dim.Channels); err != nil {
			tx.Rollback()
			return fmt.Errorf("cannot store dimension for %s: %v", e.Path, err)
		}
	}
	return tx.Commit()
}

// ForgetDimensions deletes cached entries below dir and returns how many were removed
func ForgetDimensions(db *sql.DB, dir string) (int64, error) {
	base := strings.TrimSuffix(dir, string(filepath.Separator))
	// every path below dir sorts between "dir/" and "dir0"
	lower := base + string(filepath.Separator)
	upper := base + string(filepath.Separator+1)
	res, err := db.Exec(`DELETE FROM dimensions WHERE path >= ? AND path < ?`, lower, upper)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DimensionCache adapts a database handle to the bucketer's probe cache
type DimensionCache struct {
	db *sql.DB
}

// NewDimensionCache wraps db
func NewDimensionCache(db *sql.DB) *DimensionCache {
	return &DimensionCache{db: db}
}

// LookupDimensions implements scanner.DimensionCache
func (c *DimensionCache) LookupDimensions(paths []string) (map[string]types.FileDimension, error) {
	return LookupDimensions(c.db, paths)
}

// StoreDimensions implements scanner.DimensionCache
func (c *DimensionCache) StoreDimensions(entries []types.FileDimension) error {
	return StoreDimensions(c.db, entries)
}

// ClearDimensions empties the probe cache
func ClearDimensions(db *sql.DB) (int64, error) {
	res, err := db.Exec(`DELETE FROM dimensions`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
