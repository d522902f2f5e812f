package voice

import (
	"strings"
	"unicode"
)

const armeniaDialCode = "374"

// NormalizePhone rewrites an Armenian phone number to +374 format. Numbers
// that do not look Armenian are returned trimmed but otherwise untouched.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)

	switch {
	case digits == "":
		return s
	case strings.HasPrefix(s, "+"):
		return "+" + digits
	case strings.HasPrefix(digits, "00"+armeniaDialCode):
		return "+" + digits[2:]
	case strings.HasPrefix(digits, armeniaDialCode) && len(digits) == 11:
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 9:
		return "+" + armeniaDialCode + digits[1:]
	case len(digits) >= 8 && (digits[0] == '7' || digits[0] == '9'):
		return "+" + armeniaDialCode + digits
	}
	return s
}
