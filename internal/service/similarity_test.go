package service

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Paris", "paris"},
		{"  Blue   Whale  ", "blue whale"},
		{"ALREADY LOWER", "already lower"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeAnswer(tc.in); got != tc.want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("paris", "paris"); got != 1 {
		t.Fatalf("identical strings: got %v, want 1", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("empty strings: got %v, want 1", got)
	}
	// One edit over six runes.
	got := Similarity("pariss", "paris")
	if got < 0.83 || got > 0.84 {
		t.Fatalf("Similarity(pariss, paris) = %v, want ~0.833", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings: got %v, want 0", got)
	}
}

func TestMatchesAnswer(t *testing.T) {
	cases := []struct {
		given    string
		expected string
		want     bool
	}{
		{"Paris", "paris", true},
		{"  paris ", "Paris", true},
		{"pariss", "paris", true},  // one typo within tolerance
		{"london", "paris", false}, // different answer
		{"p", "paris", false},
	}
	for _, tc := range cases {
		if got := MatchesAnswer(tc.given, tc.expected, 0.8); got != tc.want {
			t.Fatalf("MatchesAnswer(%q, %q, 0.8) = %v, want %v", tc.given, tc.expected, got, tc.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"héllo", "hello", 1}, // rune-wise, not byte-wise
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Fatalf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
