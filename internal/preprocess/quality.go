package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// QualityThresholds bounds what counts as a readable card photo
type QualityThresholds struct {
	MinLaplacianVariance float64
	MinBrightness        float64
	MaxBrightness        float64
	MinWidth             int
	MinHeight            int
}

func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        60.0,
		MaxBrightness:        230.0,
		MinWidth:             300,
		MinHeight:            190,
	}
}

// Quality summarizes how readable an image is likely to be
type Quality struct {
	LaplacianVar  float64  `json:"laplacian_var" bson:"laplacian_var"`
	Brightness    float64  `json:"brightness" bson:"brightness"`
	Blurry        bool     `json:"blurry" bson:"blurry"`
	TooDark       bool     `json:"too_dark" bson:"too_dark"`
	TooBright     bool     `json:"too_bright" bson:"too_bright"`
	LowResolution bool     `json:"low_resolution" bson:"low_resolution"`
	Issues        []string `json:"issues,omitempty" bson:"issues,omitempty"`
}

// Sharpness and exposure are measured on a copy no larger than this
const qualitySampleDimension = 1000

// AssessQuality measures sharpness and exposure of img and checks its
// resolution. Pass the source image, not the normalized one.
func AssessQuality(img image.Image, t QualityThresholds) Quality {
	bounds := img.Bounds()
	sample := img
	if bounds.Dx() > qualitySampleDimension || bounds.Dy() > qualitySampleDimension {
		sample = imaging.Fit(img, qualitySampleDimension, qualitySampleDimension, imaging.Box)
	}
	gray := toGray(sample)

	q := Quality{
		LaplacianVar: laplacianVariance(gray),
		Brightness:   brightness(gray),
	}
	q.Blurry = q.LaplacianVar < t.MinLaplacianVariance
	q.TooDark = q.Brightness < t.MinBrightness
	q.TooBright = q.Brightness > t.MaxBrightness
	q.LowResolution = bounds.Dx() < t.MinWidth || bounds.Dy() < t.MinHeight

	if q.Blurry {
		q.Issues = append(q.Issues, "image appears blurry")
	}
	if q.TooDark {
		q.Issues = append(q.Issues, "image is too dark")
	}
	if q.TooBright {
		q.Issues = append(q.Issues, "image is overexposed")
	}
	if q.LowResolution {
		q.Issues = append(q.Issues, "image resolution is too low")
	}
	return q
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Grayscale leaves R == G == B
			gray.Pix[gray.PixOffset(x, y)] = nrgba.Pix[nrgba.PixOffset(x, y)]
		}
	}
	return gray
}

// laplacianVariance is the variance of the 4-neighbour Laplacian; low values
// mean few sharp edges.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))
	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	return stat.Variance(data, nil)
}

func brightness(gray *image.Gray) float64 {
	b := gray.Bounds()
	if b.Empty() {
		return 0
	}
	values := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			values = append(values, float64(gray.GrayAt(x, y).Y))
		}
	}
	return stat.Mean(values, nil)
}
