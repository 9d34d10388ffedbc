package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"findidentical/imageprocessor"
	"findidentical/logging"
)

// ListImageFiles walks root recursively and returns the relative,
// slash-separated paths of every supported image in lexical order, along
// with the number of regular files that were skipped.
func ListImageFiles(root string) ([]string, int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	discarded := 0

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable entries below the root are skipped
			logging.LogWarning("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !imageprocessor.IsImageFile(path) {
			if d.Type().IsRegular() {
				discarded++
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error walking %s: %w", root, err)
	}

	sort.Strings(files)
	logging.DebugLog("Listed %s: %d images, %d other files", root, len(files), discarded)
	return files, discarded, nil
}
