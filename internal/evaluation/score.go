// Package evaluation scores recognized card numbers against known values
// and loads the manifests used for offline accuracy runs.
package evaluation

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

const groupLength = 4

// Score compares a recognized number with the expected one.
type Score struct {
	ExactMatch bool    `json:"exact_match"`
	CER        float64 `json:"cer"`
	WER        float64 `json:"wer"`
}

// Compare scores actual against expected. Whitespace is ignored in both.
// CER is the edit distance over the expected length; WER treats each
// 4-digit group as a word. An empty expected value scores 0 for a match
// and 1 otherwise.
func Compare(expected, actual string) Score {
	expected = compact(expected)
	actual = compact(actual)

	s := Score{ExactMatch: expected == actual}
	if expected == "" || actual == "" {
		if !s.ExactMatch {
			s.CER, s.WER = 1, 1
		}
		return s
	}

	s.CER = float64(levenshtein.Distance(expected, actual)) / float64(len(expected))
	s.WER, _ = wer.WER(groups(expected), groups(actual))
	return s
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// groups splits s into 4-character chunks; the last may be shorter.
func groups(s string) []string {
	out := make([]string, 0, (len(s)+groupLength-1)/groupLength)
	for len(s) > groupLength {
		out = append(out, s[:groupLength])
		s = s[groupLength:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// Summary aggregates scores across an evaluation run.
type Summary struct {
	Cases        int     `json:"cases"`
	Found        int     `json:"found"`
	ExactMatches int     `json:"exact_matches"`
	ExactRate    float64 `json:"exact_rate"`
	MeanCER      float64 `json:"mean_cer"`
	MeanWER      float64 `json:"mean_wer"`
}

// Add records one case. found reports whether any number was produced.
func (s *Summary) Add(score Score, found bool) {
	n := float64(s.Cases)
	s.Cases++
	if found {
		s.Found++
	}
	if score.ExactMatch {
		s.ExactMatches++
	}
	s.ExactRate = float64(s.ExactMatches) / float64(s.Cases)
	s.MeanCER = (s.MeanCER*n + score.CER) / float64(s.Cases)
	s.MeanWER = (s.MeanWER*n + score.WER) / float64(s.Cases)
}
