// Package fingerprint turns decoded images into fixed-length byte vectors
// that are equal exactly when the sampled pixel bytes are equal.
package fingerprint

import (
	"errors"
	"fmt"

	"findidentical/imageprocessor"
	"findidentical/types"
)

// ErrInconsistentBucket means a decoded image does not have the dimension
// its bucket was built from
var ErrInconsistentBucket = errors.New("decoded image does not match its bucket dimension")

// Mode selects how many bytes of an image go into its fingerprint
type Mode int

const (
	// ModeSparse samples the first channel at a fixed 15x15 grid of fractional positions
	ModeSparse Mode = iota
	// ModeExhaustive uses every byte of the decoded raster
	ModeExhaustive
)

func (m Mode) String() string {
	switch m {
	case ModeSparse:
		return "sparse"
	case ModeExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SparseScales are the fractional sample positions used along each axis
var SparseScales = [...]float64{0.1, 0.2, 0.25, 0.3, 0.35, 0.4, 0.45, 0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.9}

// SparseLength is the fingerprint length in sparse mode
const SparseLength = len(SparseScales) * len(SparseScales)

// Length returns the fingerprint length for images of dimension dim
func Length(mode Mode, dim types.Dimension) int {
	if mode == ModeExhaustive {
		return dim.PixelBytes()
	}
	return SparseLength
}

// SamplePoints returns the pixel columns and rows sampled in sparse mode
func SamplePoints(width, height int) (xs, ys []int) {
	xs = make([]int, len(SparseScales))
	ys = make([]int, len(SparseScales))
	for i, s := range SparseScales {
		xs[i] = int(float64(width) * s)
		ys[i] = int(float64(height) * s)
	}
	return xs, ys
}

// Compute writes the fingerprint of buf into dst, which must hold Length(mode, buf.Dim()) bytes
func Compute(buf *imageprocessor.PixelBuffer, mode Mode, dst []byte) {
	if mode == ModeExhaustive {
		copy(dst, buf.Pix)
		return
	}

	xs, ys := SamplePoints(buf.Width, buf.Height)
	i := 0
	for _, x := range xs {
		for _, y := range ys {
			dst[i] = buf.At(x, y, 0)
			i++
		}
	}
}

// Equal reports whether two fingerprints are identical: their XOR sum is zero
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
