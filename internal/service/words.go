package service

import (
	"strings"
	"unicode"
)

const maxWordLength = 50

// NormalizeWord produces the histogram key for a word cloud submission:
// lowercase, punctuation stripped, whitespace collapsed, truncated. Returns
// the empty string when nothing survives, which callers drop.
func NormalizeWord(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	normalized := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(normalized)
	if len(runes) > maxWordLength {
		normalized = string(runes[:maxWordLength])
	}
	return normalized
}

// AcceptWord normalizes a word cloud submission and screens it. The raw form
// is screened too: normalization strips the symbols leet substitutions use,
// so "a$$hole" would otherwise reach the filter as "ahole" and slip through.
func AcceptWord(raw string) (string, bool) {
	normalized := NormalizeWord(raw)
	if normalized == "" || IsProfane(normalized) || IsProfane(raw) {
		return "", false
	}
	return normalized, true
}
