package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

var (
	// 300.000 / 25,000 / 1.500.000, not preceded or followed by a digit.
	groupedRe = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:[.,]\d{3})+)(?:\D|$)`)
	// A number and the word right after it: "300 hazar", "1,5млн".
	numberWordRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(\pL+)`)
	plainRe      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// NormalizeAmount finds the first money-like number in s and resolves it to
// an integer. It reports false when s holds no positive number.
func NormalizeAmount(s string, locale domain.Locale) (int64, bool) {
	folded := fold(s)
	if strings.TrimSpace(folded) == "" {
		return 0, false
	}

	if m := groupedRe.FindStringSubmatch(folded); m != nil {
		digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
		if v, err := strconv.ParseInt(digits, 10, 64); err == nil && v > 0 {
			return v, true
		}
	}

	if v, ok := multiplied(folded, locale); ok {
		return v, true
	}

	if lit := plainRe.FindString(folded); lit != "" {
		if v, ok := plainLiteral(lit); ok {
			return v, true
		}
	}
	return 0, false
}

// multiplied resolves "<number> <multiplier word>", preferring the active
// locale's words over the other languages'.
func multiplied(folded string, locale domain.Locale) (int64, bool) {
	matches := numberWordRe.FindAllStringSubmatch(folded, -1)
	if len(matches) == 0 {
		return 0, false
	}
	for _, l := range localeOrder(locale) {
		for _, m := range matches {
			word := token{text: m[2]}
			for _, mult := range multipliers {
				if !tokenIs(word, mult.concept, l) {
					continue
				}
				base, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
				if err != nil || base <= 0 {
					continue
				}
				v := math.Round(base * mult.factor)
				if v >= math.MaxInt64 {
					continue
				}
				return int64(v), true
			}
		}
	}
	return 0, false
}

func plainLiteral(lit string) (int64, bool) {
	intPart, frac, hasFrac := strings.Cut(strings.Replace(lit, ",", ".", 1), ".")
	if hasFrac && len(frac) == 3 && strings.Contains(lit, ".") {
		v, err := strconv.ParseInt(intPart+frac, 10, 64)
		return v, err == nil && v > 0
	}
	f, err := strconv.ParseFloat(intPart+"."+frac, 64)
	if !hasFrac {
		f, err = strconv.ParseFloat(intPart, 64)
	}
	if err != nil || f < 1 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
