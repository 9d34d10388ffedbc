package finder

import (
	"context"
	"fmt"
	"sort"

	"findidentical/fingerprint"
	"findidentical/graph"
	"findidentical/logging"
	"findidentical/types"
)

// FindInBucket compares the images of one bucket. The sparse pass yields
// provisional groups; in exhaustive mode their members are fingerprinted
// again from every pixel byte and regrouped. It returns the groups and the
// number of images that failed to decode.
func (f *Finder) FindInBucket(ctx context.Context, key types.BucketKey, cols ...*Collection) (types.BucketGroups, int, error) {
	bg := types.BucketGroups{Key: key}

	batches := make([]fingerprint.Batch, len(cols))
	for i, c := range cols {
		b := c.Buckets.Get(key)
		if b == nil {
			return bg, 0, nil
		}
		bg.Dim = b.Dim
		bg.ImageCount += len(b.Indices)
		batches[i] = fingerprint.Batch{
			Collection: c.Info.ID,
			Root:       c.Info.Root,
			Files:      c.Info.Files,
			Indices:    b.Indices,
			Dim:        b.Dim,
		}
	}

	groups, failed, err := f.pass(ctx, batches, fingerprint.ModeSparse)
	if err != nil {
		return bg, failed, err
	}
	logging.DebugLog("Bucket %s sparse pass: %d images, %d groups", key, bg.ImageCount, len(groups))

	if f.opts.Exhaustive && len(groups) > 0 {
		provisional := len(groups)
		refined := restrict(batches, groups)
		var lost int
		groups, lost, err = f.pass(ctx, refined, fingerprint.ModeExhaustive)
		failed += lost
		if err != nil {
			return bg, failed, err
		}
		logging.DebugLog("Bucket %s exhaustive pass: %d provisional groups, %d confirmed", key, provisional, len(groups))
	}

	bg.Groups = groups
	return bg, failed, nil
}

// pass fingerprints every batch in the given mode and groups the matches
func (f *Finder) pass(ctx context.Context, batches []fingerprint.Batch, mode fingerprint.Mode) ([]types.Group, int, error) {
	opts := fingerprint.Options{Threads: f.opts.Threads, Loader: f.opts.Loader}

	sets := make([]*fingerprint.Set, len(batches))
	failed := 0
	for i, batch := range batches {
		set, err := fingerprint.Extract(ctx, batch, mode, opts)
		if err != nil {
			return nil, failed, err
		}
		sets[i] = set
		failed += set.Failed()
	}

	var g *graph.Graph
	switch len(sets) {
	case 1:
		g = graph.BuildSingle(sets[0])
	case 2:
		var err error
		g, err = graph.BuildCross(sets[0], sets[1])
		if err != nil {
			return nil, failed, err
		}
	default:
		return nil, failed, fmt.Errorf("cannot compare %d collections", len(sets))
	}

	groups, err := graph.Components(g)
	return groups, failed, err
}

// restrict narrows each batch to the images that appear in some group
func restrict(batches []fingerprint.Batch, groups []types.Group) []fingerprint.Batch {
	members := make(map[types.Collection][]int)
	for _, grp := range groups {
		for _, ref := range grp {
			members[ref.Collection] = append(members[ref.Collection], ref.Index)
		}
	}

	out := make([]fingerprint.Batch, len(batches))
	for i, b := range batches {
		idx := members[b.Collection]
		sort.Ints(idx)
		b.Indices = idx
		out[i] = b
	}
	return out
}
