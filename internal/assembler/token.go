// Package assembler reconstructs a 16-digit card number from OCR tokens.
//
// A number is either read directly from a single token or assembled from four
// 4-digit fragments that share a printed line. The package performs no I/O and
// an Engine is safe for concurrent use.
package assembler

import (
	"math"
	"strings"
)

// Point is a pixel coordinate in the source image
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Token is one OCR recognition result.
// Polygon is expected to hold 4 points clockwise from the top-left corner.
type Token struct {
	Text       string
	Polygon    []Point
	Confidence float64
}

// AssembledNumber is a recognized card number with its location and confidence
type AssembledNumber struct {
	Digits     string
	Polygon    [4]Point
	Confidence float64
}

const (
	cardNumberLength = 16
	fragmentLength   = 4
	fragmentsPerCard = cardNumberLength / fragmentLength
	polygonPoints    = 4
)

// stripWhitespace removes every whitespace rune from s
func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// isDigits reports whether s is exactly n ASCII digits
func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// verticalCenter returns the mean y-coordinate of the polygon points
func verticalCenter(polygon []Point) float64 {
	var sum float64
	for _, p := range polygon {
		sum += p.Y
	}
	return sum / float64(len(polygon))
}

func validConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}
