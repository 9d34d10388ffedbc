package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DirName returns the last element of the cleaned absolute form of dir
func DirName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	name := filepath.Base(abs)
	if name == string(filepath.Separator) || name == "." || name == "" {
		return "root"
	}
	return name
}

// CacheDirFor returns the cache directory of targetDir below cacheRoot. The
// name is the directory's base name plus a short hash of its absolute path,
// so two folders with the same name never share a cache.
func CacheDirFor(cacheRoot, targetDir string) string {
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		abs = filepath.Clean(targetDir)
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(cacheRoot, DirName(abs)+"-"+hex.EncodeToString(sum[:4]))
}

// CreateCacheDir makes sure the cache directory of targetDir exists and returns it
func CreateCacheDir(cacheRoot, targetDir string) (string, error) {
	dir := CacheDirFor(cacheRoot, targetDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}
	return dir, nil
}

// RemoveCache deletes the cache directory of targetDir. A missing cache is not an error.
func RemoveCache(cacheRoot, targetDir string) error {
	dir := CacheDirFor(cacheRoot, targetDir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cannot remove cache %s: %w", dir, err)
	}
	return nil
}

// ClearAllCache removes every cache directory below cacheRoot and returns how many were removed
func ClearAllCache(cacheRoot string) (int, error) {
	entries, err := os.ReadDir(cacheRoot)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cannot read cache root %s: %w", cacheRoot, err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(cacheRoot, e.Name())); err != nil {
			return removed, fmt.Errorf("cannot remove cache %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// ParseThreadCount parses a --nthread value. Zero or an empty string means all logical cores.
func ParseThreadCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid thread count '%s'", s)
	}
	if n == 0 {
		return runtime.NumCPU(), nil
	}
	return n, nil
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
