package fingerprint

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"findidentical/imageprocessor"
	"findidentical/logging"
	"findidentical/types"
)

// PixelLoader decodes an image into a raster with the requested channel count
type PixelLoader interface {
	LoadPixels(path string, channels int) (*imageprocessor.PixelBuffer, error)
}

// Batch is a set of images from one collection that share a dimension
type Batch struct {
	Collection types.Collection
	Root       string
	Files      []string // every file of the collection, relative to Root
	Indices    []int    // positions in Files to fingerprint
	Dim        types.Dimension
}

// Options configures Extract
type Options struct {
	Threads int
	Loader  PixelLoader // defaults to the pure Go decoders
}

// Extract decodes every image of the batch in parallel and fingerprints it.
// Images that fail to decode are left invalid in the set; an image whose
// decoded size differs from batch.Dim aborts with ErrInconsistentBucket.
func Extract(ctx context.Context, batch Batch, mode Mode, opts Options) (*Set, error) {
	loader := opts.Loader
	if loader == nil {
		loader = imageprocessor.NewImageLoaderRegistry(imageprocessor.BackendGo)
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	for _, idx := range batch.Indices {
		if idx < 0 || idx >= len(batch.Files) {
			return nil, fmt.Errorf("image index %d out of range for %d files", idx, len(batch.Files))
		}
	}

	set := newSet(batch, mode)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for slot, idx := range batch.Indices {
		if gctx.Err() != nil {
			break
		}
		path := filepath.Join(batch.Root, filepath.FromSlash(batch.Files[idx]))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			buf, err := loader.LoadPixels(path, batch.Dim.Channels)
			if err != nil {
				logging.LogImageFailed("decode", path, err)
				return nil
			}
			if buf.Dim() != batch.Dim {
				return fmt.Errorf("%w: %s decoded as %s, bucket %s",
					ErrInconsistentBucket, path, buf.Dim().Key(), batch.Dim.Key())
			}
			Compute(buf, mode, set.slot(slot))
			set.valid[slot] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if failed := set.Failed(); failed > 0 {
		logging.LogWarning("%d of %d images in bucket %s failed to decode", failed, set.Len(), batch.Dim.Key())
	}
	logging.DebugLog("Fingerprinted %d images of %s in bucket %s (%s, %d bytes each)",
		set.Len(), batch.Collection, batch.Dim.Key(), mode, set.Length)
	return set, nil
}
