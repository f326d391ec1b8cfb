package publication

import (
	"regexp"
	"strings"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// SanitizeQuery replaces anything that is not a letter, digit or whitespace
// with a space, collapses whitespace and lowercases. A blank result means no
// search.
func SanitizeQuery(q string) string {
	q = nonWord.ReplaceAllString(q, " ")
	q = whitespace.ReplaceAllString(q, " ")
	return strings.ToLower(strings.TrimSpace(q))
}
