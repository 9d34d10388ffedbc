package scanner

import (
	"sort"

	"findidentical/imageprocessor"
	"findidentical/types"
)

// DimensionCache persists probe results between runs
type DimensionCache interface {
	LookupDimensions(paths []string) (map[string]types.FileDimension, error)
	StoreDimensions(entries []types.FileDimension) error
}

// BucketOptions configures Bucketize
type BucketOptions struct {
	Threads  int
	Prober   imageprocessor.Prober // defaults to the header prober
	Cache    DimensionCache        // optional
	Progress *ProgressTracker      // optional
}

// Buckets is the dimension partition of one collection
type Buckets struct {
	Dims   []types.Dimension
	ByKey  map[types.BucketKey]*types.Bucket
	Cached int
}

// Keys returns bucket keys ordered by ascending image count, then by key
func (b *Buckets) Keys() []types.BucketKey {
	keys := make([]types.BucketKey, 0, len(b.ByKey))
	for k := range b.ByKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := len(b.ByKey[keys[i]].Indices), len(b.ByKey[keys[j]].Indices)
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Get returns the bucket for key, or nil
func (b *Buckets) Get(key types.BucketKey) *types.Bucket {
	return b.ByKey[key]
}

// Malformed counts images whose header could not be read
func (b *Buckets) Malformed() int {
	if m, ok := b.ByKey[types.MalformedBucket]; ok {
		return len(m.Indices)
	}
	return 0
}

// Histogram lists every bucket with its image count, in Keys order
func (b *Buckets) Histogram() []types.HistogramEntry {
	keys := b.Keys()
	out := make([]types.HistogramEntry, len(keys))
	for i, k := range keys {
		out[i] = types.HistogramEntry{Key: k, Count: len(b.ByKey[k].Indices)}
	}
	return out
}
