package fingerprint

import (
	"fmt"

	"findidentical/types"
)

// Set holds the fingerprints of one batch in a single flat buffer. Slot i
// belongs to the image Indices[i] of Collection.
type Set struct {
	Collection types.Collection
	Mode       Mode
	Length     int
	Indices    []int

	data  []byte
	valid []bool
}

func newSet(batch Batch, mode Mode) *Set {
	length := Length(mode, batch.Dim)
	return &Set{
		Collection: batch.Collection,
		Mode:       mode,
		Length:     length,
		Indices:    batch.Indices,
		data:       make([]byte, len(batch.Indices)*length),
		valid:      make([]bool, len(batch.Indices)),
	}
}

// Len is the number of slots, valid or not
func (s *Set) Len() int {
	return len(s.Indices)
}

// Valid reports whether slot i was decoded successfully
func (s *Set) Valid(i int) bool {
	return s.valid[i]
}

// Get returns the fingerprint in slot i, or nil when the image failed to decode
func (s *Set) Get(i int) []byte {
	if !s.valid[i] {
		return nil
	}
	return s.slot(i)
}

// Ref returns the image reference of slot i
func (s *Set) Ref(i int) types.ImageRef {
	return types.Ref(s.Collection, s.Indices[i])
}

// Failed counts the slots whose image could not be decoded
func (s *Set) Failed() int {
	n := 0
	for _, ok := range s.valid {
		if !ok {
			n++
		}
	}
	return n
}

func (s *Set) slot(i int) []byte {
	return s.data[i*s.Length : (i+1)*s.Length]
}

// FromFingerprints builds a set from precomputed fingerprints. A nil entry
// marks a failed image. Non-nil entries of different lengths are rejected.
func FromFingerprints(c types.Collection, mode Mode, indices []int, fps [][]byte) (*Set, error) {
	if len(fps) != len(indices) {
		return nil, fmt.Errorf("%d fingerprints for %d images", len(fps), len(indices))
	}
	length := -1
	for i, fp := range fps {
		if fp == nil {
			continue
		}
		if length < 0 {
			length = len(fp)
		} else if len(fp) != length {
			return nil, fmt.Errorf("fingerprint %d has length %d, want %d", i, len(fp), length)
		}
	}
	if length < 0 {
		length = 0
	}

	s := &Set{
		Collection: c,
		Mode:       mode,
		Length:     length,
		Indices:    indices,
		data:       make([]byte, len(indices)*length),
		valid:      make([]bool, len(indices)),
	}
	for i, fp := range fps {
		if fp == nil {
			continue
		}
		copy(s.slot(i), fp)
		s.valid[i] = true
	}
	return s, nil
}
