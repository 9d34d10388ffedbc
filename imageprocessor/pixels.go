package imageprocessor

import (
	"fmt"
	"image"
	"image/color"

	"findidentical/types"
)

// PixelBuffer is a decoded 8-bit raster in row-major, channel-interleaved order
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Dim returns the buffer's dimension
func (p *PixelBuffer) Dim() types.Dimension {
	return types.Dimension{Width: p.Width, Height: p.Height, Channels: p.Channels}
}

// At returns channel c of the pixel at (x, y)
func (p *PixelBuffer) At(x, y, c int) byte {
	return p.Pix[(y*p.Width+x)*p.Channels+c]
}

// ChannelsForModel maps a colour model to the number of bytes per pixel used
// for it: 1 for gray and alpha-only, 3 for opaque colour, 4 when the model can
// carry transparency. A palette counts as opaque unless one of its entries is
// translucent.
func ChannelsForModel(m color.Model) int {
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}

	switch m {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.YCbCrModel:
		return 3
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel, color.CMYKModel:
		return 4
	}
	return 4
}

// ToRaster flattens img into a row-major buffer with the given number of
// channels: 1 (gray), 3 (RGB) or 4 (non-premultiplied RGBA).
func ToRaster(img image.Image, channels int) (*PixelBuffer, error) {
	if channels != 1 && channels != 3 && channels != 4 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := &PixelBuffer{
		Width:    w,
		Height:   h,
		Channels: channels,
		Pix:      make([]byte, w*h*channels),
	}

	switch src := img.(type) {
	case *image.Gray:
		if channels == 1 {
			for y := 0; y < h; y++ {
				row := src.Pix[y*src.Stride : y*src.Stride+w]
				copy(buf.Pix[y*w:(y+1)*w], row)
			}
			return buf, nil
		}
	case *image.NRGBA:
		if channels >= 3 {
			copyRGBA(buf, src.Pix, src.Stride, w, h, false)
			return buf, nil
		}
	case *image.RGBA:
		if channels >= 3 {
			copyRGBA(buf, src.Pix, src.Stride, w, h, true)
			return buf, nil
		}
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			if channels == 1 {
				buf.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
				i++
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = n.R, n.G, n.B
			if channels == 4 {
				buf.Pix[i+3] = n.A
			}
			i += channels
		}
	}
	return buf, nil
}

// copyRGBA copies 4-byte source pixels into buf. Premultiplied pixels that are
// not fully opaque go through the NRGBA conversion so both paths agree with
// the generic one.
func copyRGBA(buf *PixelBuffer, pix []byte, stride, w, h int, premultiplied bool) {
	ch := buf.Channels
	i := 0
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			r, g, bl, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if premultiplied && a != 0xff {
				n := color.NRGBAModel.Convert(color.RGBA{R: r, G: g, B: bl, A: a}).(color.NRGBA)
				r, g, bl = n.R, n.G, n.B
			}
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, bl
			if ch == 4 {
				buf.Pix[i+3] = a
			}
			i += ch
		}
	}
}
