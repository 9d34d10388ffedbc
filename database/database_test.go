package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findidentical/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDatabase(filepath.Join(t.TempDir(), "home", "findidentical.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fii.db")
	db, err := InitDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenDatabase(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestDimensionCacheRoundTrip(t *testing.T) {
	db := openTestDB(t)
	cache := NewDimensionCache(db)

	mod := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	entries := []types.FileDimension{
		{Path: "/photos/a.png", Size: 100, ModTime: mod, Dim: types.Dimension{Width: 4, Height: 3, Channels: 3}},
		{Path: "/photos/sub/b.png", Size: 200, ModTime: mod, Dim: types.Dimension{Width: 8, Height: 8, Channels: 1}},
		{Path: "/photos-old/c.png", Size: 300, ModTime: mod, Dim: types.Dimension{Width: 1, Height: 1, Channels: 4}},
	}
	require.NoError(t, cache.StoreDimensions(entries))

	got, err := cache.LookupDimensions([]string{"/photos/a.png", "/photos/sub/b.png", "/nowhere.png"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[0].Dim, got["/photos/a.png"].Dim)
	assert.True(t, got["/photos/sub/b.png"].Fresh(200, mod))
	assert.False(t, got["/photos/sub/b.png"].Fresh(201, mod))

	// replacing keeps a single row per path
	entries[0].Size = 101
	require.NoError(t, StoreDimensions(db, entries[:1]))
	got, err = LookupDimensions(db, []string{"/photos/a.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), got["/photos/a.png"].Size)

	removed, err := ForgetDimensions(db, "/photos/")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	got, err = LookupDimensions(db, []string{"/photos-old/c.png"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLookupDimensionsManyPaths(t *testing.T) {
	db := openTestDB(t)
	var entries []types.FileDimension
	var paths []string
	for i := 0; i < 1200; i++ {
		p := fmt.Sprintf("/big/%04d.png", i)
		paths = append(paths, p)
		entries = append(entries, types.FileDimension{Path: p, Size: int64(i), ModTime: time.Unix(int64(i), 0), Dim: types.Dimension{Width: 1, Height: 1, Channels: 1}})
	}
	require.NoError(t, StoreDimensions(db, entries))

	got, err := LookupDimensions(db, paths)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}

func sampleResult() *types.Result {
	return &types.Result{
		Collections: []types.CollectionInfo{
			{ID: types.CollectionA, Root: "/data/left", Name: "left", Files: []string{"a.png", "b.png", "c.png"}, Malformed: 1},
			{ID: types.CollectionB, Root: "/data/right", Name: "right", Files: []string{"x.png", "y.png"}},
		},
		Buckets: []types.BucketGroups{{
			Key: "4x4x3",
			Dim: types.Dimension{Width: 4, Height: 4, Channels: 3},
			Groups: []types.Group{
				{types.Ref(types.CollectionA, 0), types.Ref(types.CollectionB, 1)},
				{types.Ref(types.CollectionA, 2), types.Ref(types.CollectionB, 0)},
			},
		}},
		Exhaustive: true,
		Elapsed:    1500 * time.Millisecond,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	id1, err := RecordRun(db, sampleResult(), started)
	require.NoError(t, err)
	id2, err := RecordRun(db, &types.Result{
		Collections: []types.CollectionInfo{{ID: types.CollectionA, Root: "/solo", Files: []string{"p.png"}}},
	}, started.Add(time.Hour))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := ListRuns(db, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].ID)
	assert.Empty(t, runs[0].Dir2)

	first := runs[1]
	assert.Equal(t, started, first.StartedAt)
	assert.Equal(t, "/data/left", first.Dir1)
	assert.Equal(t, "/data/right", first.Dir2)
	assert.Equal(t, 3, first.ImageCount1)
	assert.Equal(t, 2, first.ImageCount2)
	assert.Equal(t, 1, first.MalformedCount)
	assert.Equal(t, 2, first.GroupCount)
	assert.Equal(t, 2, first.IdenticalCount)
	assert.True(t, first.Exhaustive)
	assert.Equal(t, 1500*time.Millisecond, first.Elapsed)

	limited, err := ListRuns(db, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	members, err := GetRunGroups(db, id1)
	require.NoError(t, err)
	assert.Equal(t, []RunGroupMember{
		{Bucket: "4x4x3", GroupID: 0, Collection: types.CollectionA, Path: "a.png"},
		{Bucket: "4x4x3", GroupID: 0, Collection: types.CollectionB, Path: "y.png"},
		{Bucket: "4x4x3", GroupID: 1, Collection: types.CollectionA, Path: "c.png"},
		{Bucket: "4x4x3", GroupID: 1, Collection: types.CollectionB, Path: "x.png"},
	}, members)

	run, err := GetRun(db, id1)
	require.NoError(t, err)
	assert.Equal(t, first, *run)

	_, err = GetRun(db, 999)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRecordRunRejectsBadReference(t *testing.T) {
	db := openTestDB(t)
	result := sampleResult()
	result.Buckets[0].Groups[0][1] = types.Ref(types.CollectionB, 7)

	_, err := RecordRun(db, result, time.Now())
	assert.Error(t, err)

	runs, err := ListRuns(db, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
