package helper

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FoldName lowercases s and strips diacritics (José -> jose), for
// accent-insensitive name search and ordering.
func FoldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) { // mark nonspacing
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LessName orders names by their folded form, falling back to the raw
// string so distinct names never compare equal.
func LessName(a, b string) bool {
	fa, fb := FoldName(a), FoldName(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}
