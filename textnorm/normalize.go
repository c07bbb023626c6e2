// Package textnorm folds user-typed text into a canonical comparison form.
//
// Clinic records carry Turkish product and supplier names ("Phonak Türkiye",
// "işitme cihazı") while staff frequently type without diacritics. Normalize
// maps both spellings to the same form so lookups match either way.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTable maps locale-specific characters to their closest lower-case
// ASCII equivalent. Turkish needs an explicit table because its case rules
// differ from the default Unicode mappings (dotted/dotless i).
var foldTable = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'İ': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
}

// stripMarks removes combining diacritical marks from any remaining
// accented characters (é, à, ñ, ...) after the explicit table is applied.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical comparison form of s: whitespace trimmed
// and collapsed, lower-cased, with locale-specific characters folded to
// ASCII. Unknown characters pass through unchanged.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := foldTable[r]; ok {
			b.WriteRune(folded)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	out, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		// Transform failures leave the table-folded form, which is
		// already lower-cased and trimmed.
		return b.String()
	}
	return out
}

// Equal reports whether two strings are the same under normalization.
// This is the one canonical duplicate-check rule used everywhere a name
// is compared: resolver create suppression, coordinator short-circuit,
// and the storage uniqueness column.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
