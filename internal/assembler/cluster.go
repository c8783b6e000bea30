package assembler

import (
	"math"
	"sort"
	"strings"
)

// fragment is a 4-digit token with its precomputed vertical center
type fragment struct {
	digits  string
	token   Token
	centerY float64
}

// extractFragments selects the 4-digit tokens in input order
func extractFragments(tokens []Token) []fragment {
	var fragments []fragment
	for _, tok := range tokens {
		digits := stripWhitespace(tok.Text)
		if !isDigits(digits, fragmentLength) {
			continue
		}
		fragments = append(fragments, fragment{
			digits:  digits,
			token:   tok,
			centerY: verticalCenter(tok.Polygon),
		})
	}
	return fragments
}

// assembleFromFragments groups fragments that share a printed line and
// assembles the first group of exactly four into a card number.
func assembleFromFragments(tokens []Token, threshold float64) stageOutcome {
	fragments := extractFragments(tokens)
	if len(fragments) < fragmentsPerCard {
		return notFound(ReasonInsufficientFragments)
	}

	claimed := make([]bool, len(fragments))
	for seed := range fragments {
		if claimed[seed] {
			continue
		}
		if cluster := growCluster(fragments, claimed, seed, threshold); cluster != nil {
			return found(assembleCluster(cluster))
		}
	}
	return notFound(ReasonNoValidCluster)
}

// growCluster claims the seed and every later unclaimed fragment within
// threshold of the seed's center, stopping at four members. It returns nil when
// the cluster stays short; its members remain claimed either way.
func growCluster(fragments []fragment, claimed []bool, seed int, threshold float64) []fragment {
	reference := fragments[seed].centerY
	claimed[seed] = true
	cluster := []fragment{fragments[seed]}

	for i := seed + 1; i < len(fragments) && len(cluster) < fragmentsPerCard; i++ {
		if claimed[i] || math.Abs(fragments[i].centerY-reference) > threshold {
			continue
		}
		claimed[i] = true
		cluster = append(cluster, fragments[i])
	}

	if len(cluster) != fragmentsPerCard {
		return nil
	}
	return cluster
}

// assembleCluster orders the members left to right and merges them
func assembleCluster(cluster []fragment) AssembledNumber {
	ordered := make([]fragment, len(cluster))
	copy(ordered, cluster)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].token.Polygon[0].X < ordered[j].token.Polygon[0].X
	})

	var digits strings.Builder
	polygons := make([][]Point, 0, len(ordered))
	members := make([]Token, 0, len(ordered))
	for _, f := range ordered {
		digits.WriteString(f.digits)
		polygons = append(polygons, f.token.Polygon)
		members = append(members, f.token)
	}

	return AssembledNumber{
		Digits:     digits.String(),
		Polygon:    boundingRectangle(polygons...),
		Confidence: meanConfidence(members),
	}
}
