package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// stateSuffix matches a trailing two-letter UF separated by whitespace, slash,
// backslash or hyphen (e.g. "Florianópolis SC", "Bonito/MS", "Bonito - PA").
var stateSuffix = regexp.MustCompile(`^(.*?)[\s\\/-]+([A-Za-z]{2})$`)

// asciiPunctuation maps the typographic marks phone keyboards insert to
// their ASCII forms, so "d’Água" and "d'Água" fold alike.
var asciiPunctuation = runes.Map(func(r rune) rune {
	switch r {
	case '\u2018', '\u2019', '\u201A', '\u201B', '\u02BC', '\u00B4', '\u0060', '\u2032':
		return '\''
	case '\u201C', '\u201D', '\u201E', '\u201F', '\u00AB', '\u00BB', '\u2033':
		return '"'
	case '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015', '\u2212':
		return '-'
	case '\u00A0', '\u2007', '\u202F':
		return ' '
	}
	return r
})

// Normalize folds a municipality name into its index key: diacritics are
// removed, full-width forms and typographic punctuation become ASCII and the
// result is lower-cased, so "São Paulo", "Ｓão Paulo" and "sao paulo" produce
// the same key.
func Normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), width.Fold, asciiPunctuation, norm.NFC)
	result, _, err := transform.String(fold, s)
	if err != nil {
		result = s
	}
	return strings.ToLower(result)
}

// SplitNameAndState separates a trailing UF from a city line.
// The returned state is upper-cased; ok is false when no suffix was found,
// in which case name is the whole trimmed input.
//
// A city whose last word has exactly two letters is read as a UF.
func SplitNameAndState(s string) (name, state string, ok bool) {
	trimmed := strings.TrimSpace(s)
	m := stateSuffix.FindStringSubmatch(trimmed)
	if m == nil {
		return trimmed, "", false
	}
	return strings.TrimSpace(m[1]), strings.ToUpper(m[2]), true
}
