package qa

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// allowedLetters are the non-ASCII letters kept by Normalize.
const allowedLetters = "ãáâàéêíóôõúüç"

// Normalize canonicalizes a question for exact-match lookup: NFC composition,
// Portuguese lower-casing, removal of every character other than ASCII
// digits, ASCII letters, the accented letters used in Portuguese and
// whitespace, then whitespace collapse and trim. Normalize is idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	// A Caser keeps state, so each call gets its own.
	s = cases.Lower(language.BrazilianPortuguese).String(s)

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			return r
		case unicode.IsSpace(r):
			return ' '
		case strings.ContainsRune(allowedLetters, r):
			return r
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
