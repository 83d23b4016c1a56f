package match

import (
	"math"
	"sort"
	"strings"

	"github.com/entity-resolver/internal/normalize"
)

// SortKey is a string prepared for token-sort comparison: transliterated to
// ASCII, lowercased, reduced to alphanumeric tokens and sorted.
type SortKey struct {
	sorted string
	blank  bool // the raw input was empty
}

// NewSortKey prepares s for comparison.
func NewSortKey(s string) SortKey {
	tokens := strings.Fields(normalize.Text(s))
	sort.Strings(tokens)
	return SortKey{sorted: strings.Join(tokens, " "), blank: s == ""}
}

// Ratio scores two prepared keys 0–100. Two empty raw inputs score 100; a
// side with no tokens left after processing scores 0.
func (k SortKey) Ratio(other SortKey) int {
	switch {
	case k.blank && other.blank:
		return 100
	case k.sorted == "" || other.sorted == "":
		return 0
	}
	return Ratio(k.sorted, other.sorted)
}

// TokenSortRatio scores two strings 0–100 independent of token order: each
// side is reduced to sorted ASCII alphanumeric tokens and the rejoined
// strings are compared with an indel-weighted Levenshtein ratio. Non-Latin
// scripts are transliterated first so they keep their tokens.
func TokenSortRatio(a, b string) int {
	return NewSortKey(a).Ratio(NewSortKey(b))
}

// Ratio returns round(100 * (len(a)+len(b)-d) / (len(a)+len(b))) where d is
// the Levenshtein distance with substitutions costing 2.
func Ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	lensum := len(a) + len(b)
	dist := WeightedLevenshtein(a, b, 2)
	return int(math.RoundToEven(100 * float64(lensum-dist) / float64(lensum)))
}

// WeightedLevenshtein computes the edit distance between s1 and s2 with unit
// insertions and deletions and the given substitution cost.
func WeightedLevenshtein(s1, s2 string, substitution int) int {
	if s1 == s2 {
		return 0
	}

	len1, len2 := len(s1), len(s2)
	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = substitution
			}
			curr[j] = min(
				min(prev[j]+1, curr[j-1]+1), // deletion, insertion
				prev[j-1]+cost,              // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}
