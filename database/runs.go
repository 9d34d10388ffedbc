package database

import (
	"database/sql"
	"fmt"
	"time"

	"findidentical/types"
)

// RunSummary is one row of the runs table
type RunSummary struct {
	ID             int64
	StartedAt      time.Time
	Dir1           string
	Dir2           string
	ImageCount1    int
	ImageCount2    int
	MalformedCount int
	GroupCount     int
	IdenticalCount int
	Exhaustive     bool
	Elapsed        time.Duration
}

// RunGroupMember is one image of a stored group
type RunGroupMember struct {
	Bucket     types.BucketKey
	GroupID    int
	Collection types.Collection
	Path       string
}

// RecordRun stores a finished run and its groups, returning the run id
func RecordRun(db *sql.DB, result *types.Result, startedAt time.Time) (int64, error) {
	if len(result.Collections) == 0 {
		return 0, fmt.Errorf("cannot record a run without collections")
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}

	var dir2 sql.NullString
	count2, malformed := 0, 0
	for _, c := range result.Collections {
		malformed += c.Malformed
	}
	if result.IsCross() {
		dir2 = sql.NullString{String: result.Collections[1].Root, Valid: true}
		count2 = len(result.Collections[1].Files)
	}

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, dir1, dir2, image_count1, image_count2, malformed_count,
			group_count, identical_count, exhaustive, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339), result.Collections[0].Root, dir2,
		len(result.Collections[0].Files), count2, malformed,
		result.GroupCount(), result.IdenticalCount(), result.Exhaustive, result.Elapsed.Milliseconds())
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("cannot insert run: %v", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_groups (run_id, bucket, group_id, position, collection, path)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("cannot prepare group insert: %v", err)
	}
	defer stmt.Close()

	for _, bg := range result.Buckets {
		for gid, group := range bg.Groups {
			for pos, ref := range group {
				_, rel, err := result.Resolve(ref)
				if err != nil {
					tx.Rollback()
					return 0, err
				}
				if _, err := stmt.Exec(runID, string(bg.Key), gid, pos, int(ref.Collection), rel); err != nil {
					tx.Rollback()
					return 0, fmt.Errorf("cannot insert group member: %v", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

const runColumns = `id, started_at, dir1, dir2, image_count1, image_count2, malformed_count,
	group_count, identical_count, exhaustive, elapsed_ms`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunSummary, error) {
	var r RunSummary
	var started string
	var dir2 sql.NullString
	var elapsedMs int64
	err := row.Scan(&r.ID, &started, &r.Dir1, &dir2, &r.ImageCount1, &r.ImageCount2,
		&r.MalformedCount, &r.GroupCount, &r.IdenticalCount, &r.Exhaustive, &elapsedMs)
	if err != nil {
		return nil, err
	}
	r.StartedAt, err = time.Parse(time.RFC3339, started)
	if err != nil {
		return nil, fmt.Errorf("cannot parse start time of run %d: %v", r.ID, err)
	}
	r.Dir2 = dir2.String
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &r, nil
}

// ListRuns returns the most recent runs first; limit <= 0 returns all
func ListRuns(db *sql.DB, limit int) ([]RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run, or sql.ErrNoRows
func GetRun(db *sql.DB, id int64) (*RunSummary, error) {
	return scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
}

// GetRunGroups returns the stored groups of a run in their original order
func GetRunGroups(db *sql.DB, runID int64) ([]RunGroupMember, error) {
	rows, err := db.Query(`
		SELECT bucket, group_id, collection, path FROM run_groups
		WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups of run %d: %v", runID, err)
	}
	defer rows.Close()

	var members []RunGroupMember
	for rows.Next() {
		var m RunGroupMember
		var bucket string
		var collection int
		if err := rows.Scan(&bucket, &m.GroupID, &collection, &m.Path); err != nil {
			return nil, err
		}
		m.Bucket = types.BucketKey(bucket)
		m.Collection = types.Collection(collection)
		members = append(members, m)
	}
	return members, rows.Err()
}
