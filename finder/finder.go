// Package finder runs the two-pass search for identical images over one
// folder or across two folders.
package finder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"findidentical/fingerprint"
	"findidentical/imageprocessor"
	"findidentical/logging"
	"findidentical/scanner"
	"findidentical/types"
	"findidentical/utils"
)

var (
	ErrNoDirectories      = errors.New("at least one folder path must be provided")
	ErrTooManyDirectories = errors.New("only TARGET_DIR and CHECK_DIR should be provided")
)

// Options configures a Finder
type Options struct {
	Threads    int
	Exhaustive bool
	Loader     fingerprint.PixelLoader // defaults to the pure Go decoders
	Prober     imageprocessor.Prober   // defaults to the header prober
	Cache      scanner.DimensionCache  // optional probe cache
	Progress   io.Writer               // nil disables progress lines
}

// Collection is one listed and bucketed folder
type Collection struct {
	Info    types.CollectionInfo
	Buckets *scanner.Buckets
}

// Finder compares the images of one or two collections
type Finder struct {
	opts Options
}

// New creates a Finder, filling in default threads and decoders
func New(opts Options) *Finder {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if opts.Loader == nil {
		opts.Loader = imageprocessor.NewImageLoaderRegistry(imageprocessor.BackendGo)
	}
	if opts.Prober == nil {
		opts.Prober = imageprocessor.NewHeaderProber()
	}
	return &Finder{opts: opts}
}

// Run scans every directory and compares them: one directory against itself,
// two directories against each other.
func (f *Finder) Run(ctx context.Context, dirs ...string) (*types.Result, error) {
	if err := ValidateDirs(dirs); err != nil {
		return nil, err
	}

	start := time.Now()
	cols := make([]*Collection, len(dirs))
	for i, dir := range dirs {
		col, err := f.Scan(ctx, types.Collection(i+1), dir)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	result, err := f.Compare(ctx, cols...)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// ValidateDirs checks the number of directories given to Run
func ValidateDirs(dirs []string) error {
	switch {
	case len(dirs) == 0:
		return ErrNoDirectories
	case len(dirs) > 2:
		return ErrTooManyDirectories
	}
	return nil
}

// Scan lists the images below root and partitions them by dimension
func (f *Finder) Scan(ctx context.Context, id types.Collection, root string) (*Collection, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", root, err)
	}

	files, discarded, err := scanner.ListImageFiles(abs)
	if err != nil {
		return nil, err
	}

	name := utils.DirName(abs)
	progress := f.newProgress("Reading "+name, len(files))
	buckets, err := scanner.Bucketize(ctx, abs, files, scanner.BucketOptions{
		Threads:  f.opts.Threads,
		Prober:   f.opts.Prober,
		Cache:    f.opts.Cache,
		Progress: progress,
	})
	progress.Stop()
	if err != nil {
		return nil, fmt.Errorf("reading dimensions of %s: %w", root, err)
	}

	return &Collection{
		Info: types.CollectionInfo{
			ID:        id,
			Root:      abs,
			Name:      name,
			Files:     files,
			Discarded: discarded,
			Malformed: buckets.Malformed(),
			Histogram: buckets.Histogram(),
		},
		Buckets: buckets,
	}, nil
}

// Compare finds the identical groups of already scanned collections
func (f *Finder) Compare(ctx context.Context, cols ...*Collection) (*types.Result, error) {
	if len(cols) == 0 {
		return nil, ErrNoDirectories
	}
	if len(cols) > 2 {
		return nil, ErrTooManyDirectories
	}

	result := &types.Result{Exhaustive: f.opts.Exhaustive}
	for _, c := range cols {
		result.Collections = append(result.Collections, c.Info)
	}

	keys := comparableKeys(cols)
	progress := f.newProgress("Comparing", len(keys))
	defer progress.Stop()

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bg, failed, err := f.FindInBucket(ctx, key, cols...)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", key, err)
		}
		result.DecodeFailures += failed
		if len(bg.Groups) > 0 {
			result.Buckets = append(result.Buckets, bg)
		}
		progress.Done(failed == 0)
	}

	logging.LogInfo("Compared %d buckets: %d groups, %d identical images, %d decode failures",
		len(keys), result.GroupCount(), result.IdenticalCount(), result.DecodeFailures)
	return result, nil
}

// comparableKeys lists the buckets worth comparing, in the first
// collection's histogram order
func comparableKeys(cols []*Collection) []types.BucketKey {
	var keys []types.BucketKey
	for _, key := range cols[0].Buckets.Keys() {
		if key == types.MalformedBucket {
			continue
		}
		if len(cols) == 1 {
			if len(cols[0].Buckets.Get(key).Indices) < 2 {
				continue
			}
		} else if cols[1].Buckets.Get(key) == nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (f *Finder) newProgress(label string, total int) *scanner.ProgressTracker {
	if f.opts.Progress == nil || total == 0 {
		return nil
	}
	return scanner.NewProgressTracker(f.opts.Progress, label, total, 500*time.Millisecond)
}
