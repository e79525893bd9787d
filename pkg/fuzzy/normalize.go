// Package fuzzy reduces artist and title strings to a comparable form for
// heuristic duplicate matching.
package fuzzy

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds accented characters, drops every rune that is not an ASCII
// letter or digit and lowercases the rest. "The Beatles" becomes "thebeatles".
func Normalize(s string) string {
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// Key returns the n-byte prefix of the normalized form of s. ok is false when
// the normalized form is shorter than n: no reliable match key exists and the
// caller must not treat a miss as a guarantee of absence.
func Key(s string, n int) (key string, ok bool) {
	if n <= 0 {
		return "", false
	}

	normalized := Normalize(s)
	if len(normalized) < n {
		return "", false
	}

	return normalized[:n], true
}
