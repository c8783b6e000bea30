package assembler

import (
	"fmt"
	"math"
)

// DefaultThreshold is the default maximum vertical-center deviation, in pixels,
// for two fragments to count as the same printed line.
const DefaultThreshold = 10.0

// Method identifies how a card number was obtained
type Method string

const (
	// MethodDirect means a single token held the whole number
	MethodDirect Method = "direct"
	// MethodClustered means the number was assembled from four fragments
	MethodClustered Method = "clustered"
)

// Reason explains why a stage produced no number
type Reason string

const (
	ReasonNoDirectMatch         Reason = "no_direct_match"
	ReasonInsufficientFragments Reason = "insufficient_fragments"
	ReasonNoValidCluster        Reason = "no_valid_cluster"
)

// Options configures an Engine
type Options struct {
	// Threshold is the same-line tolerance in pixels; must be positive
	Threshold float64
}

// DefaultOptions returns the default engine options
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// WithThreshold returns options with the given clustering threshold
func (opts Options) WithThreshold(threshold float64) Options {
	opts.Threshold = threshold
	return opts
}

// Result is the outcome of one Assemble call. When Found is false, Reason
// tells which strategy was exhausted last and Number is the zero value.
type Result struct {
	Found  bool
	Method Method
	Number AssembledNumber
	Reason Reason
}

// stageOutcome is the tagged result passed between detection stages
type stageOutcome struct {
	ok     bool
	number AssembledNumber
	reason Reason
}

func found(number AssembledNumber) stageOutcome {
	return stageOutcome{ok: true, number: number}
}

func notFound(reason Reason) stageOutcome {
	return stageOutcome{reason: reason}
}

// Engine detects card numbers in OCR token lists.
// It holds only immutable configuration.
type Engine struct {
	threshold float64
}

// NewEngine validates the options and creates an Engine
func NewEngine(opts Options) (*Engine, error) {
	t := opts.Threshold
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return nil, fmt.Errorf("%w (got %v)", ErrThresholdMisconfigured, t)
	}
	return &Engine{threshold: t}, nil
}

// Threshold returns the configured clustering threshold
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Assemble looks for a card number in tokens. A direct 16-digit token wins;
// otherwise 4-digit fragments are clustered by line. An absent number is
// reported through Result, while malformed tokens return an error wrapping
// ErrInvalidToken before any matching is attempted.
func (e *Engine) Assemble(tokens []Token) (Result, error) {
	if err := validateTokens(tokens); err != nil {
		return Result{}, err
	}

	if out := findDirectMatch(tokens); out.ok {
		return Result{Found: true, Method: MethodDirect, Number: out.number}, nil
	}

	out := assembleFromFragments(tokens, e.threshold)
	if !out.ok {
		return Result{Reason: out.reason}, nil
	}
	return Result{Found: true, Method: MethodClustered, Number: out.number}, nil
}
