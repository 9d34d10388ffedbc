package imageprocessor

import (
	"bufio"
	"fmt"
	"image"
	"os"
)

// StandardImageLoader decodes with the Go image package and its registered decoders
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for every supported format
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatBMP,
				FormatPNM,
				FormatTIFF,
			},
		},
	}
}

// LoadPixels decodes the whole file and converts it to the requested layout
func (l *StandardImageLoader) LoadPixels(path string, channels int) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if channels == 0 {
		channels = ChannelsForModel(img.ColorModel())
	}
	return ToRaster(img, channels)
}
