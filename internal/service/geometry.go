package service

import (
	"github.com/anime-shed/card-number-reader/internal/assembler"
	"github.com/anime-shed/card-number-reader/internal/preprocess"
)

// toSourceCoordinates maps token polygons from the normalized image back
// to the image the caller supplied.
func toSourceCoordinates(tokens []assembler.Token, norm preprocess.Result) []assembler.Token {
	if norm.Scale == 1 && norm.Offset.X == 0 && norm.Offset.Y == 0 {
		return tokens
	}

	out := make([]assembler.Token, len(tokens))
	for i, t := range tokens {
		poly := make([]assembler.Point, len(t.Polygon))
		for j, p := range t.Polygon {
			x, y := norm.ToSource(p.X, p.Y)
			poly[j] = assembler.Point{X: x, Y: y}
		}
		out[i] = assembler.Token{Text: t.Text, Polygon: poly, Confidence: t.Confidence}
	}
	return out
}

func polygonToBBox(poly [4]assembler.Point) [][2]float64 {
	bbox := make([][2]float64, len(poly))
	for i, p := range poly {
		bbox[i] = [2]float64{p.X, p.Y}
	}
	return bbox
}
