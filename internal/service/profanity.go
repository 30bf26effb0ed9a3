package service

import "strings"

// profanityBlocklist is matched against leet-normalized words. Near matches
// are caught by edit-distance similarity so trivial obfuscations do not slip
// through.
var profanityBlocklist = []string{
	"fuck", "shit", "bitch", "cunt", "asshole", "dick", "pussy",
	"cock", "slut", "whore", "nigger", "faggot", "retard",
}

const profanityTolerance = 0.85

// leetReplacer undoes common character substitutions before matching.
var leetReplacer = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"8", "b",
	"@", "a",
	"$", "s",
	"!", "i",
	"+", "t",
)

// IsProfane reports whether a normalized word should be dropped from public
// display. Best-effort filtering only.
func IsProfane(word string) bool {
	candidate := leetReplacer.Replace(strings.ToLower(word))
	for _, blocked := range profanityBlocklist {
		if strings.Contains(candidate, blocked) {
			return true
		}
		// Similarity only makes sense for words of comparable length.
		if len(candidate) >= len(blocked)-1 && len(candidate) <= len(blocked)+2 {
			if Similarity(candidate, blocked) >= profanityTolerance {
				return true
			}
		}
	}
	return false
}
