// Package export writes the groups of a run to disk as JSON, CSV, HTML and
// plain file lists.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"findidentical/logging"
	"findidentical/types"
)

// ErrUnknownFormat is returned by WriteFile for unsupported extensions
var ErrUnknownFormat = errors.New("unknown export file extension")

// Format is one of the export file kinds
type Format string

const (
	FormatJSON           Format = "json"
	FormatCSV            Format = "csv"
	FormatHTML           Format = "html"
	FormatFileList       Format = "filelist"
	FormatDeleteFileList Format = "delete-filelist"
)

var writers = map[Format]func(io.Writer, *types.Result) error{
	FormatJSON:           WriteJSON,
	FormatCSV:            WriteCSV,
	FormatHTML:           WriteHTML,
	FormatFileList:       WriteFileList,
	FormatDeleteFileList: WriteDeleteFileList,
}

// Prefix is the common file name stem: "<dir1>" or "<dir1>-<dir2>"
func Prefix(result *types.Result) string {
	names := make([]string, len(result.Collections))
	for i, c := range result.Collections {
		names[i] = c.Name
	}
	return strings.Join(names, "-")
}

// FileName returns the file name used by WriteAll for format f
func FileName(result *types.Result, f Format) string {
	switch f {
	case FormatFileList:
		return Prefix(result) + "-identical-filelist.txt"
	case FormatDeleteFileList:
		return Prefix(result) + "-identical-delete-filelist.txt"
	default:
		return Prefix(result) + "-identical." + string(f)
	}
}

// WriteAll writes every format into dir and returns the written paths
func WriteAll(result *types.Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create export directory %s: %w", dir, err)
	}

	var written []string
	for _, f := range []Format{FormatJSON, FormatHTML, FormatCSV, FormatFileList, FormatDeleteFileList} {
		path := filepath.Join(dir, FileName(result, f))
		if err := writeTo(path, result, writers[f]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	logging.LogInfo("Exported %d groups to %s", result.GroupCount(), dir)
	return written, nil
}

// FormatForPath picks the export format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt":
		return FormatFileList, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, filepath.Ext(path))
}

// WriteFile writes result to path in the format implied by its extension
func WriteFile(result *types.Result, path string) (Format, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return f, writeTo(path, result, writers[f])
}

func writeTo(path string, result *types.Result, write func(io.Writer, *types.Result) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	w := bufio.NewWriter(file)
	if err := write(w, result); err != nil {
		file.Close()
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteCSV writes one row per group with one field per member
func WriteCSV(w io.Writer, result *types.Result) error {
	cw := csv.NewWriter(w)
	for _, bg := range result.Buckets {
		for _, g := range bg.Groups {
			row := make([]string, len(g))
			for i, ref := range g {
				row[i] = result.DisplayPath(ref)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileList writes every group member, one per line
func WriteFileList(w io.Writer, result *types.Result) error {
	return writeMembers(w, result, 0)
}

// WriteDeleteFileList writes every member except the first of each group,
// i.e. the files that can go while one copy of each image stays
func WriteDeleteFileList(w io.Writer, result *types.Result) error {
	return writeMembers(w, result, 1)
}

func writeMembers(w io.Writer, result *types.Result, skip int) error {
	for _, bg := range result.Buckets {
		for _, g := range bg.Groups {
			for _, ref := range g[skip:] {
				if _, err := fmt.Fprintln(w, result.DisplayPath(ref)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// WriteHistogram writes the dimension histogram as "image_dimension,image_count" CSV
func WriteHistogram(entries []types.HistogramEntry, path string) error {
	return writeTo(path, nil, func(w io.Writer, _ *types.Result) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"image_dimension", "image_count"}); err != nil {
			return err
		}
		for _, e := range entries {
			if err := cw.Write([]string{string(e.Key), strconv.Itoa(e.Count)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
