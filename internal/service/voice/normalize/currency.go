package normalize

import (
	"strings"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/messages"
)

// ArmeniaTimezone marks a clinic whose default currency is AMD.
const ArmeniaTimezone = "Asia/Yerevan"

type CurrencyResult struct {
	Currency domain.Currency
	// Explicit is set when the text named a currency.
	Explicit bool
	Warnings []string
}

// DetectCurrency decides the currency of an utterance. AMD beats every other
// token because transcription confuses dram and ruble; ruble in Armenian
// speech falls back to AMD with a warning.
func DetectCurrency(s string, locale domain.Locale, timezone string, fallback domain.Currency) CurrencyResult {
	t := newText(s)
	hasAMD := t.has(ConceptAMD)
	hasRUB := t.has(ConceptRUB)
	hasUSD := t.has(ConceptUSD)
	hasEUR := t.has(ConceptEUR)

	var res CurrencyResult
	res.Explicit = hasAMD || hasRUB || hasUSD || hasEUR

	switch {
	case hasAMD:
		res.Currency = domain.CurrencyAMD
		if hasRUB {
			res.Warnings = append(res.Warnings, messages.Text(locale, messages.CurrencyConflict))
		}
	case hasUSD:
		res.Currency = domain.CurrencyUSD
	case hasEUR:
		res.Currency = domain.CurrencyEUR
	case hasRUB:
		res.Currency = domain.CurrencyRUB
		if locale == domain.LocaleArmenian {
			res.Currency = domain.CurrencyAMD
			res.Warnings = append(res.Warnings, messages.Text(locale, messages.CurrencyRUBInArmenian))
		}
	default:
		res.Currency = DefaultCurrency(locale, timezone, fallback)
	}
	return res
}

// DefaultCurrency is the currency assumed when nothing was said.
func DefaultCurrency(locale domain.Locale, timezone string, fallback domain.Currency) domain.Currency {
	if locale == domain.LocaleArmenian || strings.EqualFold(timezone, ArmeniaTimezone) || fallback == "" {
		return domain.CurrencyAMD
	}
	return fallback
}
