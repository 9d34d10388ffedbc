package types

import (
	"fmt"
	"sort"
	"time"
)

// Collection identifies which of the (at most two) compared folders an image belongs to
type Collection uint8

const (
	CollectionA Collection = 1
	CollectionB Collection = 2
)

func (c Collection) String() string {
	switch c {
	case CollectionA:
		return "A"
	case CollectionB:
		return "B"
	default:
		return fmt.Sprintf("Collection(%d)", uint8(c))
	}
}

// ImageRef points at one image: its collection and its position in that collection's file list
type ImageRef struct {
	Collection Collection `json:"collection"`
	Index      int        `json:"index"`
}

// Ref is shorthand for building an ImageRef
func Ref(c Collection, index int) ImageRef {
	return ImageRef{Collection: c, Index: index}
}

// Less orders refs by collection first, then by index
func (r ImageRef) Less(o ImageRef) bool {
	if r.Collection != o.Collection {
		return r.Collection < o.Collection
	}
	return r.Index < o.Index
}

func (r ImageRef) String() string {
	return fmt.Sprintf("%s:%d", r.Collection, r.Index)
}

// Dimension is the decoded size of an image
type Dimension struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
}

// Key renders the bucket key "WxHxC"
func (d Dimension) Key() BucketKey {
	return BucketKey(fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Channels))
}

// IsZero reports whether any component is zero, which marks an unreadable image
func (d Dimension) IsZero() bool {
	return d.Width <= 0 || d.Height <= 0 || d.Channels <= 0
}

// PixelBytes is the size of the decoded raster in bytes
func (d Dimension) PixelBytes() int {
	return d.Width * d.Height * d.Channels
}

// BucketKey is the textual "WxHxC" key of a bucket
type BucketKey string

// MalformedBucket collects every image whose header could not be parsed
const MalformedBucket BucketKey = "0x0x0"

// Bucket holds the images of one collection that share a dimension
type Bucket struct {
	Key     BucketKey `json:"key"`
	Dim     Dimension `json:"dim"`
	Indices []int     `json:"indices"`
}

// Group is one set of identical images, sorted ascending
type Group []ImageRef

// NewGroup copies and sorts the given refs
func NewGroup(refs []ImageRef) Group {
	g := make(Group, len(refs))
	copy(g, refs)
	sort.Slice(g, func(i, j int) bool { return g[i].Less(g[j]) })
	return g
}

// Min returns the smallest member; the group must not be empty
func (g Group) Min() ImageRef {
	return g[0]
}

// SortGroups orders groups by their minimum member
func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Min().Less(groups[j].Min())
	})
}

// CollectionInfo describes one scanned folder
type CollectionInfo struct {
	ID        Collection       `json:"id"`
	Root      string           `json:"root"`
	Name      string           `json:"name"`
	Files     []string         `json:"files"`
	Discarded int              `json:"discarded"`
	Malformed int              `json:"malformed"`
	Histogram []HistogramEntry `json:"histogram,omitempty"`
}

// BucketGroups holds the final groups found in one bucket
type BucketGroups struct {
	Key        BucketKey `json:"key"`
	Dim        Dimension `json:"dim"`
	ImageCount int       `json:"image_count"`
	Groups     []Group   `json:"groups"`
}

// Result is everything a run hands to the export layer
type Result struct {
	Collections    []CollectionInfo `json:"collections"`
	Buckets        []BucketGroups   `json:"buckets"`
	Exhaustive     bool             `json:"exhaustive"`
	DecodeFailures int              `json:"decode_failures"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// IsCross reports whether two collections were compared
func (r *Result) IsCross() bool {
	return len(r.Collections) == 2
}

// GroupCount is the number of groups across all buckets
func (r *Result) GroupCount() int {
	n := 0
	for _, b := range r.Buckets {
		n += len(b.Groups)
	}
	return n
}

// IdenticalCount counts every group member beyond the first one
func (r *Result) IdenticalCount() int {
	n := 0
	for _, b := range r.Buckets {
		for _, g := range b.Groups {
			n += len(g) - 1
		}
	}
	return n
}

// TotalImages sums the file counts of all collections
func (r *Result) TotalImages() int {
	n := 0
	for _, c := range r.Collections {
		n += len(c.Files)
	}
	return n
}

// Collection returns the info for id, or nil
func (r *Result) Collection(id Collection) *CollectionInfo {
	for i := range r.Collections {
		if r.Collections[i].ID == id {
			return &r.Collections[i]
		}
	}
	return nil
}

// Resolve maps a ref back to its collection name and relative path
func (r *Result) Resolve(ref ImageRef) (string, string, error) {
	c := r.Collection(ref.Collection)
	if c == nil {
		return "", "", fmt.Errorf("unknown collection %s", ref.Collection)
	}
	if ref.Index < 0 || ref.Index >= len(c.Files) {
		return "", "", fmt.Errorf("index %d out of range for collection %s (%d files)", ref.Index, ref.Collection, len(c.Files))
	}
	return c.Name, c.Files[ref.Index], nil
}

// DisplayPath renders a ref as "dirname/relative/path"
func (r *Result) DisplayPath(ref ImageRef) string {
	name, rel, err := r.Resolve(ref)
	if err != nil {
		return ref.String()
	}
	return name + "/" + rel
}

// FileDimension is a probed dimension together with the file state it was read from
type FileDimension struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dim     Dimension
}

// Fresh reports whether the entry still describes a file of the given size and mtime
func (f FileDimension) Fresh(size int64, modTime time.Time) bool {
	return f.Size == size && f.ModTime.Equal(modTime)
}

// HistogramEntry is one row of the dimension histogram
type HistogramEntry struct {
	Key   BucketKey `json:"image_dimension"`
	Count int       `json:"image_count"`
}
