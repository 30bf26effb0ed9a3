package service

import "strings"

// NormalizeAnswer folds case and collapses whitespace so typed answers
// compare on content alone.
func NormalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity returns the edit-distance similarity between two strings in
// [0,1], where 1 is an exact match.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// MatchesAnswer reports whether a typed answer matches the expected one,
// either exactly after normalization or within the similarity tolerance, to
// absorb minor typos without accepting wrong answers.
func MatchesAnswer(given, expected string, tolerance float64) bool {
	g, e := NormalizeAnswer(given), NormalizeAnswer(expected)
	if g == e {
		return true
	}
	return Similarity(g, e) >= tolerance
}

// levenshtein computes the edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
