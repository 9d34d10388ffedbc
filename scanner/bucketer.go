package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"findidentical/imageprocessor"
	"findidentical/logging"
	"findidentical/types"
)

// Bucketize probes the dimension of every file under root and partitions the
// file indices by (width, height, channels). Files whose header cannot be read
// land in the malformed bucket.
func Bucketize(ctx context.Context, root string, files []string, opts BucketOptions) (*Buckets, error) {
	prober := opts.Prober
	if prober == nil {
		prober = imageprocessor.NewHeaderProber()
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(root, filepath.FromSlash(f))
	}

	var cached map[string]types.FileDimension
	if opts.Cache != nil {
		var err error
		cached, err = opts.Cache.LookupDimensions(paths)
		if err != nil {
			// A broken cache only costs time
			logging.LogWarning("Dimension cache lookup failed for %s: %v", root, err)
			cached = nil
		}
	}

	dims := make([]types.Dimension, len(files))
	fresh := make([]*types.FileDimension, len(files))
	hits := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dims[i], fresh[i], hits[i] = probeOne(prober, paths[i], cached)
			opts.Progress.Done(!dims[i].IsZero())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buckets := &Buckets{
		Dims:  dims,
		ByKey: make(map[types.BucketKey]*types.Bucket),
	}
	var store []types.FileDimension
	for i, d := range dims {
		if d.IsZero() {
			d = types.Dimension{}
			dims[i] = d
		}
		key := d.Key()
		b, ok := buckets.ByKey[key]
		if !ok {
			b = &types.Bucket{Key: key, Dim: d}
			buckets.ByKey[key] = b
		}
		b.Indices = append(b.Indices, i)

		if hits[i] {
			buckets.Cached++
		}
		if fresh[i] != nil {
			store = append(store, *fresh[i])
		}
	}

	if opts.Cache != nil && len(store) > 0 {
		if err := opts.Cache.StoreDimensions(store); err != nil {
			logging.LogWarning("Dimension cache update failed for %s: %v", root, err)
		}
	}

	logging.LogInfo("Bucketed %s: %d images in %d buckets (%d malformed, %d from cache)",
		root, len(files), len(buckets.ByKey), buckets.Malformed(), buckets.Cached)
	return buckets, nil
}

// probeOne returns the dimension of path, a cache entry to store when the
// file was probed successfully, and whether the cache answered
func probeOne(prober imageprocessor.Prober, path string, cached map[string]types.FileDimension) (types.Dimension, *types.FileDimension, bool) {
	info, statErr := os.Stat(path)
	if statErr == nil {
		if entry, ok := cached[path]; ok && entry.Fresh(info.Size(), info.ModTime()) && !entry.Dim.IsZero() {
			return entry.Dim, nil, true
		}
	}

	dim, err := prober.Probe(path)
	if err != nil {
		logging.LogImageFailed("probe", path, err)
		return types.Dimension{}, nil, false
	}
	if dim.IsZero() {
		logging.LogImageFailed("probe", path, fmt.Errorf("empty dimension %s", dim.Key()))
		return types.Dimension{}, nil, false
	}
	if statErr != nil {
		return dim, nil, false
	}
	return dim, &types.FileDimension{Path: path, Size: info.Size(), ModTime: info.ModTime(), Dim: dim}, false
}
