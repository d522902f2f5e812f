package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// Latin forms at least this long also match with one edit.
const fuzzyMinLen = 8

var (
	yoToYe   = strings.NewReplacer("ё", "е")
	allLocal = []domain.Locale{domain.LocaleArmenian, domain.LocaleRussian, domain.LocaleEnglish}
)

type token struct {
	text  string
	digit bool
}

// text is a transcript prepared for lexicon lookups.
type text struct {
	folded string
	tokens []token
	joined string
}

// fold lowercases and NFC-normalizes s. Casers keep state, so each call
// builds its own.
func fold(s string) string {
	return yoToYe.Replace(norm.NFC.String(cases.Fold().String(s)))
}

func newText(s string) *text {
	t := &text{folded: fold(s)}
	t.tokens = tokenize(t.folded)

	parts := make([]string, len(t.tokens))
	for i, tok := range t.tokens {
		parts[i] = tok.text
	}
	t.joined = " " + strings.Join(parts, " ") + " "
	return t
}

// tokenize splits on anything that is not a letter or digit, and between
// letter and digit runs ("300hazar" is two tokens).
func tokenize(s string) []token {
	var (
		tokens []token
		b      strings.Builder
		digit  bool
	)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, token{text: b.String(), digit: digit})
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			if b.Len() > 0 && !digit {
				flush()
			}
			digit = true
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsMark(r):
			if b.Len() > 0 && digit {
				flush()
			}
			digit = false
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func matchToken(tok, form string) bool {
	if stem, ok := strings.CutSuffix(form, "*"); ok {
		return strings.HasPrefix(tok, stem)
	}
	if tok == form {
		return true
	}
	n := utf8.RuneCountInString(form)
	if n < fuzzyMinLen || !isLatin(form) || !isLatin(tok) {
		return false
	}
	if d := len(tok) - len(form); d > 1 || d < -1 {
		return false
	}
	return matchr.DamerauLevenshtein(tok, form) <= 1
}

func (t *text) matchForm(form string) bool {
	switch {
	case !hasLetter(form):
		return strings.Contains(t.folded, form)
	case strings.Contains(form, " "):
		return strings.Contains(t.joined, " "+form+" ")
	}
	for _, tok := range t.tokens {
		if !tok.digit && matchToken(tok.text, form) {
			return true
		}
	}
	return false
}

// hasIn reports whether any form of concept in locale occurs.
func (t *text) hasIn(c Concept, locale domain.Locale) bool {
	for _, form := range lexicon[locale][c] {
		if t.matchForm(form) {
			return true
		}
	}
	return false
}

// has reports whether any locale's form of concept occurs.
func (t *text) has(c Concept) bool {
	for _, l := range allLocal {
		if t.hasIn(c, l) {
			return true
		}
	}
	return false
}

// tokenIs reports whether a single word token is a form of concept.
func tokenIs(tok token, c Concept, locales ...domain.Locale) bool {
	if tok.digit {
		return false
	}
	if len(locales) == 0 {
		locales = allLocal
	}
	for _, l := range locales {
		for _, form := range lexicon[l][c] {
			if hasLetter(form) && !strings.Contains(form, " ") && matchToken(tok.text, form) {
				return true
			}
		}
	}
	return false
}
