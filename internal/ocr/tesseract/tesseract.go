// Package tesseract binds the OCR recognizer to Tesseract via gosseract.
//
// It requires libtesseract and leptonica at build time. On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev libleptonica-dev tesseract-ocr-eng
package tesseract

import (
	"fmt"

	"github.com/anime-shed/card-number-reader/internal/ocr"

	"github.com/otiai10/gosseract/v2"
)

// client adapts a gosseract client to ocr.Client
type client struct {
	tess *gosseract.Client
}

// NewClientFactory returns a factory of tesseract clients configured from opts
func NewClientFactory(opts ocr.Options) ocr.ClientFactory {
	return func() (ocr.Client, error) {
		tess := gosseract.NewClient()

		if err := tess.SetLanguage(opts.Language); err != nil {
			tess.Close()
			return nil, fmt.Errorf("failed to set language %q: %w", opts.Language, err)
		}
		if err := tess.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			tess.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
		if opts.Whitelist != "" {
			if err := tess.SetWhitelist(opts.Whitelist); err != nil {
				tess.Close()
				return nil, fmt.Errorf("failed to set whitelist: %w", err)
			}
		}
		if opts.TessdataPrefix != "" {
			if err := tess.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
				tess.Close()
				return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
			}
		}

		return &client{tess: tess}, nil
	}
}

// NewRecognizer creates a pooled recognizer backed by tesseract
func NewRecognizer(opts ocr.Options) (*ocr.PooledRecognizer, error) {
	return ocr.NewPooledRecognizer(NewClientFactory(opts), opts)
}

// Version returns the linked tesseract version
func Version() string {
	return gosseract.Version()
}

func (c *client) SetImageFromBytes(data []byte) error {
	return c.tess.SetImageFromBytes(data)
}

func (c *client) Boxes(level ocr.Level) ([]ocr.Box, error) {
	boxes, err := c.tess.GetBoundingBoxes(iteratorLevel(level))
	if err != nil {
		return nil, err
	}

	out := make([]ocr.Box, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, ocr.Box{
			Rect:       b.Box,
			Text:       b.Word,
			Confidence: b.Confidence,
		})
	}
	return out, nil
}

func (c *client) Close() error {
	return c.tess.Close()
}

func iteratorLevel(level ocr.Level) gosseract.PageIteratorLevel {
	if level == ocr.LevelLine {
		return gosseract.RIL_TEXTLINE
	}
	return gosseract.RIL_WORD
}
