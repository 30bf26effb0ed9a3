package service

import (
	"strings"
	"testing"
)

func TestNormalizeWord(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello", "hello"},
		{"  spaced   out  ", "spaced out"},
		{"punctuation!?!", "punctuation"},
		{"mixed-Case_123", "mixedcase123"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeWord(tc.in); got != tc.want {
			t.Fatalf("NormalizeWord(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeWordTruncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := NormalizeWord(long)
	if len([]rune(got)) != maxWordLength {
		t.Fatalf("expected %d runes, got %d", maxWordLength, len([]rune(got)))
	}
}

func TestIsProfane(t *testing.T) {
	cases := []struct {
		word string
		want bool
	}{
		{"fuck", true},
		{"FUCK", true},
		{"sh1t", true},    // leet substitution
		{"a$$hole", true}, // leet substitution
		{"5hit", true},
		{"hello", false},
		{"assessment", false}, // substring false positives stay out
		{"ship", false},
	}
	for _, tc := range cases {
		if got := IsProfane(tc.word); got != tc.want {
			t.Fatalf("IsProfane(%q) = %v, want %v", tc.word, got, tc.want)
		}
	}
}

func TestAcceptWord(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Hello", "hello", true},
		{"  Great Talk ", "great talk", true},
		{"!!!", "", false},
		{"fuck", "", false},
		// Normalization strips the leet symbols; the raw-form screen still
		// has to catch these.
		{"a$$hole", "", false},
		{"$hit", "", false},
	}
	for _, tc := range cases {
		got, ok := AcceptWord(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("AcceptWord(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
