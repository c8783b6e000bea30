package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func colorImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: 40, B: 200, A: 255})
		}
	}
	return img
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		height    int
		maxDim    int
		wantW     int
		wantH     int
		wantScale float64
	}{
		{"Small image untouched", 400, 250, 2000, 400, 250, 1},
		{"Landscape downsized", 4000, 2500, 2000, 2000, 1250, 2},
		{"Portrait downsized", 1000, 3000, 1500, 500, 1500, 2},
		{"Resizing disabled", 3000, 1000, 0, 3000, 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxDimension = tt.maxDim

			res := Normalize(colorImage(tt.width, tt.height), opts)
			b := res.Image.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Normalize() size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			if res.Scale != tt.wantScale {
				t.Errorf("Normalize() scale = %v, want %v", res.Scale, tt.wantScale)
			}
		})
	}
}

func TestNormalize_Grayscale(t *testing.T) {
	res := Normalize(colorImage(20, 10), DefaultOptions())

	r, g, b, _ := res.Image.At(5, 5).RGBA()
	if r != g || g != b {
		t.Errorf("pixel = (%d,%d,%d), want equal channels", r, g, b)
	}
}

func TestResult_ToSource(t *testing.T) {
	res := Result{Scale: 2, Offset: image.Pt(10, 20)}

	x, y := res.ToSource(100, 50)
	if x != 210 || y != 120 {
		t.Errorf("ToSource() = (%v,%v), want (210,120)", x, y)
	}
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, colorImage(3, 2)); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("Decode() bounds = %v, want 3x2", img.Bounds())
	}

	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Decode() expected error for garbage input")
	}
}
