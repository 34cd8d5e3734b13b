// Package tagset holds the pure logic behind page tagging: slug
// normalization, parsing of the free-text tag editor, set diffing, the
// three-way merge of concurrent edits and the change comment built from a diff.
// Nothing in this package performs I/O; collaborators are injected.
package tagset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nonWord matches every rune that is not a letter, number or underscore.
// Combining marks left behind by decomposition fall in this set.
var nonWord = runes.Predicate(func(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_')
})

// Slugify maps a display name to its canonical tag identifier:
// compatibility decomposition, non-word runes dropped, lowercased.
// "Foo Bar!" and "foobar" share a slug. The result may be empty; callers
// must reject that.
func Slugify(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(nonWord))
	out, _, err := transform.String(t, name)
	if err != nil {
		// transform only fails on malformed chains; fall back to a rune walk.
		out = strings.Map(func(r rune) rune {
			if nonWord.Contains(r) {
				return -1
			}
			return r
		}, norm.NFKD.String(name))
	}
	return strings.ToLower(out)
}
