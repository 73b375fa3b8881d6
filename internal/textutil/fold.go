package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s with runs of whitespace
// collapsed to a single space. Two titles that differ only in case or spacing
// fold to the same string.
func Fold(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	folded := cases.Fold().String(s)
	return strings.Join(strings.Fields(folded), " ")
}

// ContainsFold reports whether needle occurs in haystack under Fold.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Truncate shortens s to at most limit runes, appending an ellipsis when text
// was cut. A non-positive limit returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
