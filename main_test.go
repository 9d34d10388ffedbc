package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findidentical/finder"
	"findidentical/testutil"
	"findidentical/utils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate points HOME and the findidentical home at temporary directories
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return filepath.Join(t.TempDir(), "fii-home")
}

func photoDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "photos")
	dup := testutil.NoiseRGBA(24, 24, 1)
	testutil.WritePNG(t, dir, "a.png", dup)
	testutil.WritePNG(t, dir, "b.png", testutil.NoiseRGBA(24, 24, 2))
	testutil.WritePNG(t, dir, "nested/c.png", dup)
	testutil.WriteFile(t, dir, "readme.txt", []byte("not an image"))
	return dir
}

func TestDirectoryCountErrors(t *testing.T) {
	isolate(t)

	_, err := execute(t)
	assert.True(t, errors.Is(err, finder.ErrNoDirectories))

	_, err = execute(t, "a", "b", "c")
	assert.True(t, errors.Is(err, finder.ErrTooManyDirectories))
}

func TestFindReportsGroups(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)

	out, err := execute(t, "--home", home, "--histogram", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "[24x24x3] 1 sets of identical images")
	assert.Contains(t, out, "photos/a.png")
	assert.Contains(t, out, "photos/nested/c.png")
	assert.Contains(t, out, "1 non-image files")
	assert.Contains(t, out, "image_dimension")

	histogram := filepath.Join(utils.CacheDirFor(filepath.Join(home, "cache"), dir), "photos-img-dimension-histogram.csv")
	data, err := os.ReadFile(histogram)
	require.NoError(t, err)
	assert.Equal(t, "image_dimension,image_count\n24x24x3,3\n", string(data))
}

func TestFindExportToCache(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)

	_, err := execute(t, "--home", home, "--export", "--check-every-px", dir)
	require.NoError(t, err)

	cacheDir := utils.CacheDirFor(filepath.Join(home, "cache"), dir)
	assert.FileExists(t, filepath.Join(cacheDir, "photos-identical.json"))
	assert.FileExists(t, filepath.Join(cacheDir, "photos-identical-delete-filelist.txt"))

	del, err := os.ReadFile(filepath.Join(cacheDir, "photos-identical-delete-filelist.txt"))
	require.NoError(t, err)
	assert.Equal(t, "photos/nested/c.png\n", string(del))
}

func TestFindExportFileAcrossFolders(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)
	backup := filepath.Join(t.TempDir(), "backup")
	testutil.CopyDir(t, dir, backup)
	target := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, "--home", home, "--nthread", "2", "--export-file", target, dir, backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Results written to csv file")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// a.png and nested/c.png match each other's copies as well
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "backup/a.png")
}

func TestHistoryAndClearCache(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)

	_, err := execute(t, "--home", home, "--export", dir)
	require.NoError(t, err)

	out, err := execute(t, "history", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, dir)
	assert.Contains(t, out, "1 identical in 1 sets")

	out, err = execute(t, "history", "--home", home, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "[24x24x3] set 0:")
	assert.Contains(t, out, filepath.Join(dir, "nested/c.png"))

	_, err = execute(t, "history", "--home", home, "42")
	assert.Error(t, err)

	cacheDir := utils.CacheDirFor(filepath.Join(home, "cache"), dir)
	require.DirExists(t, cacheDir)
	out, err = execute(t, "clear-cache", "--home", home, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cache of")
	assert.NoDirExists(t, cacheDir)

	out, err = execute(t, "clear-cache", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 0 cache directories")
}

func TestNoHistory(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)

	_, err := execute(t, "--home", home, "--no-history", dir)
	require.NoError(t, err)

	out, err := execute(t, "history", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestInvalidFlags(t *testing.T) {
	home := isolate(t)
	dir := photoDir(t)

	_, err := execute(t, "--home", home, "--nthread", "lots", dir)
	assert.Error(t, err)

	_, err = execute(t, "--home", home, "--decoder", "magick", dir)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "findidentical "+version+"\n", out)
}
