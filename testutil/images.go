// Package testutil synthesises image fixtures for tests.
package testutil

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

// NoiseRGBA returns a fully opaque image filled with seeded random colours
func NoiseRGBA(w, h int, seed int64) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = byte(r.Intn(256))
		img.Pix[i+1] = byte(r.Intn(256))
		img.Pix[i+2] = byte(r.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

// NoiseGray returns a seeded random grayscale image
func NoiseGray(w, h int, seed int64) *image.Gray {
	r := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(r.Intn(256))
	}
	return img
}

// Uniform returns a w x h opaque image of a single colour
func Uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Paletted returns a seeded random image whose pixels index into pal
func Paletted(w, h int, pal color.Palette, seed int64) *image.Paletted {
	r := rand.New(rand.NewSource(seed))
	img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	for i := range img.Pix {
		img.Pix[i] = uint8(r.Intn(len(pal)))
	}
	return img
}

// ToNRGBA copies img into a non-premultiplied RGBA image with the same pixels
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}

// WritePNG encodes img as PNG at dir/name, creating parent directories
func WritePNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()
	return write(t, dir, name, func(f *os.File) error { return png.Encode(f, img) })
}

// WriteJPEG encodes img as a maximum quality JPEG at dir/name
func WriteJPEG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()
	return write(t, dir, name, func(f *os.File) error {
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	})
}

// WriteBMP encodes img as BMP at dir/name
func WriteBMP(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()
	return write(t, dir, name, func(f *os.File) error { return bmp.Encode(f, img) })
}

// WriteFile writes raw bytes at dir/name, useful for malformed fixtures
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// CopyDir copies every regular file below src into dst, keeping relative paths
func CopyDir(t testing.TB, src, dst string) {
	t.Helper()
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
}

func write(t testing.TB, dir, name string, encode func(*os.File) error) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f))
	return path
}
