// Package ocr turns images into the OCR tokens consumed by the card number
// assembler. Engine bindings live in subpackages and plug in as Clients.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/anime-shed/card-number-reader/internal/assembler"

	"github.com/disintegration/imaging"
)

// Box is one recognized region as reported by an OCR engine
type Box struct {
	Rect       image.Rectangle
	Text       string
	Confidence float64 // 0-100, as reported by tesseract
}

// Client is a single OCR engine handle. Implementations need not be safe
// for concurrent use; the recognizer serializes access per client.
type Client interface {
	SetImageFromBytes(data []byte) error
	Boxes(level Level) ([]Box, error)
	Close() error
}

// ClientFactory creates a configured Client
type ClientFactory func() (Client, error)

// Recognizer extracts OCR tokens from an image
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]assembler.Token, error)
	Close() error
}

// PooledRecognizer runs recognition on a fixed pool of clients
type PooledRecognizer struct {
	pool *clientPool
	opts Options
}

// NewPooledRecognizer creates opts.Workers clients with factory
func NewPooledRecognizer(factory ClientFactory, opts Options) (*PooledRecognizer, error) {
	if len(opts.Levels) == 0 {
		return nil, fmt.Errorf("at least one recognition level is required")
	}
	pool, err := newClientPool(opts.workerCount(), factory)
	if err != nil {
		return nil, err
	}
	return &PooledRecognizer{pool: pool, opts: opts}, nil
}

// Workers returns the number of OCR clients
func (r *PooledRecognizer) Workers() int {
	return r.pool.size()
}

// Recognize encodes img, runs it through a free client and returns the tokens
// of every configured level in order.
func (r *PooledRecognizer) Recognize(ctx context.Context, img image.Image) ([]assembler.Token, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client, err := r.pool.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("no OCR client available: %w", err)
	}
	defer r.pool.release(client)

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	var tokens []assembler.Token
	for _, level := range r.opts.Levels {
		boxes, err := client.Boxes(level)
		if err != nil {
			return nil, fmt.Errorf("OCR failed at %s level: %w", level, err)
		}
		tokens = append(tokens, BoxesToTokens(boxes, r.opts.MinConfidence)...)

		// The engine call itself cannot be interrupted; stop between levels
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// Close frees every OCR client
func (r *PooledRecognizer) Close() error {
	return r.pool.Close()
}

// BoxesToTokens converts engine boxes to assembler tokens, dropping empty text
// and boxes under minConfidence (0-1).
func BoxesToTokens(boxes []Box, minConfidence float64) []assembler.Token {
	tokens := make([]assembler.Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		confidence := normalizeConfidence(b.Confidence)
		if confidence < minConfidence {
			continue
		}
		tokens = append(tokens, assembler.Token{
			Text:       text,
			Polygon:    rectPolygon(b.Rect),
			Confidence: confidence,
		})
	}
	return tokens
}

// rectPolygon returns the rectangle's corners clockwise from the top-left
func rectPolygon(r image.Rectangle) []assembler.Point {
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X), float64(r.Max.Y)
	return []assembler.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

// normalizeConfidence maps a 0-100 engine score onto [0,1]
func normalizeConfidence(c float64) float64 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	return math.Min(c/100, 1)
}
