// Package similarity provides normalized string similarity scoring for
// supplier and client name comparison.
package similarity

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Score computes a similarity score in [0, 1] between two names.
//
// Both inputs are trimmed and lowercased before comparison. Identical
// normalized strings score 1.0 (two empty strings are identical); if exactly
// one side is empty the score is 0.0. Otherwise the score is
// (maxLen - editDistance) / maxLen over runes, where editDistance is the
// classic single-character insert/delete/substitute edit distance.
//
// Score is a pure function and safe for concurrent use.
func Score(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)

	if a == b {
		return 1.0
	}

	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	// DefaultOptionsWithSub charges substitutions 1, not insert+delete.
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptionsWithSub)
	if distance >= maxLen {
		return 0.0
	}

	return float64(maxLen-distance) / float64(maxLen)
}

// Contains reports whether either name contains the other as a
// case-insensitive substring. Empty sides never match.
func Contains(a, b string) bool {
	a = normalize(a)
	b = normalize(b)

	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
