package ocr

import "runtime"

// PageSegMode mirrors tesseract's page segmentation modes
type PageSegMode int

const (
	PageSegAuto        PageSegMode = 3  // Fully automatic (tesseract default)
	PageSegSingleBlock PageSegMode = 6  // Single uniform block of text
	PageSegSingleLine  PageSegMode = 7  // Single text line
	PageSegSparseText  PageSegMode = 11 // Find as much text as possible
)

// Level is the granularity at which recognized boxes are reported
type Level int

const (
	LevelLine Level = iota
	LevelWord
)

// String returns the level name used in logs
func (l Level) String() string {
	switch l {
	case LevelLine:
		return "line"
	case LevelWord:
		return "word"
	default:
		return "unknown"
	}
}

// Options configures OCR recognition
type Options struct {
	Language       string
	PageSegMode    PageSegMode
	Whitelist      string
	TessdataPrefix string

	// Levels are read in order; their tokens are concatenated in that order
	Levels []Level

	// Boxes below this confidence (0-1) are dropped
	MinConfidence float64

	// Number of OCR clients; 0 means one per CPU
	Workers int
}

// DefaultOptions returns options tuned for embossed and printed card digits.
// Lines come first so a whole printed number can match directly.
func DefaultOptions() Options {
	return Options{
		Language:      "eng",
		PageSegMode:   PageSegSparseText,
		Whitelist:     "0123456789 ",
		Levels:        []Level{LevelLine, LevelWord},
		MinConfidence: 0,
		Workers:       0, // Use default CPU count
	}
}

// WithLanguage returns options for the given tesseract language(s)
func (opts Options) WithLanguage(lang string) Options {
	if lang != "" {
		opts.Language = lang
	}
	return opts
}

// WithLevels returns options reading only the given levels
func (opts Options) WithLevels(levels ...Level) Options {
	opts.Levels = append([]Level(nil), levels...)
	return opts
}

// WithWorkers returns options with a fixed client count
func (opts Options) WithWorkers(n int) Options {
	opts.Workers = n
	return opts
}

// WithTessdataPrefix returns options with a custom tessdata directory
func (opts Options) WithTessdataPrefix(prefix string) Options {
	opts.TessdataPrefix = prefix
	return opts
}

func (opts Options) workerCount() int {
	if opts.Workers <= 0 {
		return runtime.NumCPU()
	}
	return opts.Workers
}
