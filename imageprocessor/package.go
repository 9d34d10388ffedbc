// Package imageprocessor probes and decodes the image formats findidentical
// understands. Probing reads only the header; loading yields a raw 8-bit
// raster with a caller-chosen channel count.
package imageprocessor

import (
	// Decoders registered with the image package for probing and the Go backend.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/jbuchbinder/gopnm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)
