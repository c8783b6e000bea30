package assembler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken indicates a token that violates the OCR input contract
	ErrInvalidToken = errors.New("invalid token")

	// ErrThresholdMisconfigured indicates a non-positive clustering threshold
	ErrThresholdMisconfigured = errors.New("threshold must be a positive number")
)

// InvalidTokenError describes which token was rejected and why
type InvalidTokenError struct {
	Index  int
	Reason string
}

// Error implements the error interface
func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("%v at index %d: %s", ErrInvalidToken, e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidToken) match
func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// validateTokens rejects the first token with a malformed polygon or confidence
func validateTokens(tokens []Token) error {
	for i, tok := range tokens {
		if len(tok.Polygon) != polygonPoints {
			return &InvalidTokenError{
				Index:  i,
				Reason: fmt.Sprintf("polygon has %d points, want %d", len(tok.Polygon), polygonPoints),
			}
		}
		if !validConfidence(tok.Confidence) {
			return &InvalidTokenError{
				Index:  i,
				Reason: fmt.Sprintf("confidence %v outside [0,1]", tok.Confidence),
			}
		}
	}
	return nil
}
