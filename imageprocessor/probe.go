package imageprocessor

import (
	"bufio"
	"fmt"
	"image"
	"os"

	"findidentical/types"
)

// Prober reads an image's dimension without decoding its pixels
type Prober interface {
	Probe(path string) (types.Dimension, error)
}

// HeaderProber parses only the file header through image.DecodeConfig
type HeaderProber struct{}

// NewHeaderProber creates a header-only prober
func NewHeaderProber() *HeaderProber {
	return &HeaderProber{}
}

// Probe returns (width, height, channels) for path
func (p *HeaderProber) Probe(path string) (types.Dimension, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Dimension{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return types.Dimension{}, fmt.Errorf("cannot read image header of %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return types.Dimension{}, fmt.Errorf("invalid %s dimension %dx%d: %s", format, cfg.Width, cfg.Height, path)
	}

	return types.Dimension{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Channels: ChannelsForModel(cfg.ColorModel),
	}, nil
}
