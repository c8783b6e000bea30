// Package preprocess normalizes card photos before OCR
package preprocess

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Options controls image normalization
type Options struct {
	// Longest side after resizing; 0 disables resizing
	MaxDimension int
	Grayscale    bool
	// Percentage in [-100, 100]
	Contrast float64
	// Gaussian sigma; 0 disables sharpening
	Sharpen float64
}

// DefaultOptions returns the normalization used for card photos
func DefaultOptions() Options {
	return Options{
		MaxDimension: 2000,
		Grayscale:    true,
		Contrast:     20,
		Sharpen:      1.0,
	}
}

// Result is a normalized image plus the mapping back to the source image
type Result struct {
	Image image.Image
	// Source pixels per normalized pixel
	Scale float64
	// Top-left of the source image bounds
	Offset image.Point
}

// ToSource maps a coordinate in the normalized image to the source image
func (r Result) ToSource(x, y float64) (float64, float64) {
	return x*r.Scale + float64(r.Offset.X), y*r.Scale + float64(r.Offset.Y)
}

// Decode reads an image and applies its EXIF orientation
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Normalize downsizes, desaturates, and sharpens img for OCR
func Normalize(img image.Image, opts Options) Result {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	result := Result{Scale: 1, Offset: bounds.Min}

	var out image.Image = imaging.Clone(img)
	if opts.MaxDimension > 0 && (width > opts.MaxDimension || height > opts.MaxDimension) {
		if width >= height {
			out = imaging.Resize(out, opts.MaxDimension, 0, imaging.Lanczos)
		} else {
			out = imaging.Resize(out, 0, opts.MaxDimension, imaging.Lanczos)
		}
		result.Scale = float64(width) / float64(out.Bounds().Dx())
	}

	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.Sharpen > 0 {
		out = imaging.Sharpen(out, opts.Sharpen)
	}

	result.Image = out
	return result
}
