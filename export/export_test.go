package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findidentical/types"
)

func crossResult() *types.Result {
	groups := make([]types.Group, 12)
	for i := range groups {
		groups[i] = types.Group{types.Ref(types.CollectionA, i), types.Ref(types.CollectionB, i)}
	}
	files := make([]string, 12)
	for i := range files {
		files[i] = "img" + string(rune('a'+i)) + ".png"
	}
	return &types.Result{
		Collections: []types.CollectionInfo{
			{ID: types.CollectionA, Root: "/data/left", Name: "left", Files: files},
			{ID: types.CollectionB, Root: "/data/right", Name: "right", Files: files},
		},
		Buckets: []types.BucketGroups{{Key: "8x8x3", Groups: groups}},
	}
}

func selfResult() *types.Result {
	return &types.Result{
		Collections: []types.CollectionInfo{
			{ID: types.CollectionA, Root: "/data/photos", Name: "photos",
				Files: []string{"a.png", "sub/b.png", "c <1>.png", "d.png", "e,f.png"}},
		},
		Buckets: []types.BucketGroups{
			{Key: "4x4x1", Groups: []types.Group{{types.Ref(types.CollectionA, 0), types.Ref(types.CollectionA, 1), types.Ref(types.CollectionA, 3)}}},
			{Key: "2x2x3", Groups: []types.Group{{types.Ref(types.CollectionA, 2), types.Ref(types.CollectionA, 4)}}},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, selfResult()))

	var doc map[string]map[string]map[string][]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"photos/a.png", "photos/sub/b.png", "photos/d.png"}, doc["identical"]["4x4x1"]["0"])
	assert.Equal(t, []string{"photos/c <1>.png", "photos/e,f.png"}, doc["identical"]["2x2x3"]["0"])
	assert.True(t, strings.HasPrefix(buf.String(), `{"identical":{"4x4x1":{"0":[`))
}

func TestWriteJSONKeepsGroupOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, crossResult()))
	out := buf.String()
	assert.Less(t, strings.Index(out, `"2":`), strings.Index(out, `"10":`))
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &types.Result{}))
	assert.Equal(t, `{"identical":{}}`, buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, selfResult()))
	assert.Equal(t,
		"photos/a.png,photos/sub/b.png,photos/d.png\n"+
			"photos/c <1>.png,\"photos/e,f.png\"\n",
		buf.String())
}

func TestFileLists(t *testing.T) {
	var all, del bytes.Buffer
	require.NoError(t, WriteFileList(&all, selfResult()))
	require.NoError(t, WriteDeleteFileList(&del, selfResult()))

	assert.Equal(t, "photos/a.png\nphotos/sub/b.png\nphotos/d.png\nphotos/c <1>.png\nphotos/e,f.png\n", all.String())
	assert.Equal(t, "photos/sub/b.png\nphotos/d.png\nphotos/e,f.png\n", del.String())
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, selfResult()))
	out := buf.String()

	assert.Contains(t, out, "Identical images in [photos/]")
	assert.Contains(t, out, "photos/c &lt;1&gt;.png")
	assert.Contains(t, out, `src="file:///data/photos/sub/b.png"`)
	assert.Equal(t, 5, strings.Count(out, "<figure>"))

	buf.Reset()
	require.NoError(t, WriteHTML(&buf, crossResult()))
	assert.Contains(t, buf.String(), "Identical images between [left/] and [right/]")
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	paths, err := WriteAll(crossResult(), dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		assert.FileExists(t, p)
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{
		"left-right-identical.json",
		"left-right-identical.html",
		"left-right-identical.csv",
		"left-right-identical-filelist.txt",
		"left-right-identical-delete-filelist.txt",
	}, names)

	data, err := os.ReadFile(filepath.Join(dir, "left-right-identical-delete-filelist.txt"))
	require.NoError(t, err)
	assert.Equal(t, 12, strings.Count(string(data), "right/"))
	assert.NotContains(t, string(data), "left/")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	f, err := WriteFile(selfResult(), filepath.Join(dir, "out.CSV"))
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.FileExists(t, filepath.Join(dir, "out.CSV"))

	f, err = WriteFile(selfResult(), filepath.Join(dir, "nested", "list.txt"))
	require.NoError(t, err)
	assert.Equal(t, FormatFileList, f)

	_, err = WriteFile(selfResult(), filepath.Join(dir, "out.xml"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.NoFileExists(t, filepath.Join(dir, "out.xml"))
}

func TestWriteHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.csv")
	require.NoError(t, WriteHistogram([]types.HistogramEntry{
		{Key: "0x0x0", Count: 1},
		{Key: "640x480x3", Count: 12},
	}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image_dimension,image_count\n0x0x0,1\n640x480x3,12\n", string(data))
}
