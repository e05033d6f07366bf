package models

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid  = regexp.MustCompile(`[^\w\s-]`)
	slugSeparate = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to a URL-safe slug: accents are folded to ASCII,
// anything else outside letters, digits, underscores and hyphens is
// dropped, and runs of spaces or hyphens become a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = slugInvalid.ReplaceAllString(strings.ToLower(folded), "")
	folded = slugSeparate.ReplaceAllString(folded, "-")
	return strings.Trim(folded, "-_")
}
