// Package slug derives stable, lowercase, hyphen-joined identifiers from
// display names. Output is deterministic and suitable for cross-referencing
// records by name.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const separator = '-'

// Make folds name into slug form: diacritics are stripped, letters are
// lowercased, every run of other characters becomes a single hyphen, and
// leading or trailing hyphens are trimmed. "Élan Vital!" becomes "elan-vital".
func Make(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	lastSeparator := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSeparator = false
			continue
		}
		if !lastSeparator {
			b.WriteRune(separator)
			lastSeparator = true
		}
	}
	return strings.TrimRight(b.String(), string(separator))
}
