package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"
)

// OpenCVImageLoader decodes through OpenCV. Output matches StandardImageLoader's
// layout: 8-bit samples in R, G, B(, A) order.
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a loader backed by gocv
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
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

// LoadPixels loads the image unchanged, then normalises depth, colour order and channel count
func (l *OpenCVImageLoader) LoadPixels(path string, channels int) (*PixelBuffer, error) {
	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	if img.Empty() {
		return nil, newImageLoadError("failed to load image with OpenCV", path)
	}
	defer img.Close()

	// 16-bit and float rasters are scaled down to 8 bit
	if img.Type()&7 != gocv.MatTypeCV8U {
		scaled := gocv.NewMat()
		defer scaled.Close()
		img.ConvertToWithParams(&scaled, gocv.MatTypeCV8U, 1.0/257.0, 0)
		scaled.CopyTo(&img)
	}

	have := img.Channels()
	if channels == 0 {
		channels = have
	}

	out := img
	if code, ok := colorConversion(have, channels); ok {
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(img, &converted, code)
		out = converted
	} else if have != channels {
		return nil, fmt.Errorf("cannot convert %d-channel image to %d channels: %s", have, channels, path)
	}

	return &PixelBuffer{
		Width:    out.Cols(),
		Height:   out.Rows(),
		Channels: channels,
		Pix:      out.ToBytes(),
	}, nil
}

// colorConversion picks the conversion from OpenCV's BGR(A)/gray layout
// to the requested gray/RGB/RGBA layout. ok is false when no conversion is needed
// or none exists.
func colorConversion(have, want int) (gocv.ColorConversionCode, bool) {
	switch {
	case have == 1 && want == 3:
		return gocv.ColorGrayToBGR, true
	case have == 1 && want == 4:
		return gocv.ColorGrayToBGRA, true
	case have == 3 && want == 1:
		return gocv.ColorBGRToGray, true
	case have == 3 && want == 3:
		return gocv.ColorBGRToRGB, true
	case have == 3 && want == 4:
		return gocv.ColorBGRToRGBA, true
	case have == 4 && want == 1:
		return gocv.ColorBGRAToGray, true
	case have == 4 && want == 3:
		return gocv.ColorBGRAToRGB, true
	case have == 4 && want == 4:
		return gocv.ColorBGRAToRGBA, true
	}
	return 0, false
}
