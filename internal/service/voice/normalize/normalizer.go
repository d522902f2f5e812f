// Package normalize corrects what the language model extracted from a
// transcript: amounts, currency and dates across Armenian, Russian and
// English, including Latin transliterations.
package normalize

import (
	"strings"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/messages"
)

// Context is the request context normalization resolves against.
type Context struct {
	Locale          domain.Locale
	Timezone        string
	Today           civil.Date
	Mode            domain.Mode
	DefaultCurrency domain.Currency
}

type Normalizer struct {
	log *zap.Logger
}

func NewNormalizer(log *zap.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize rewrites the fields it can resolve with confidence and
// reclassifies the intent. Confidence is left for the scorer.
func (n *Normalizer) Normalize(raw domain.RawIntent, transcript string, nc Context) (domain.NormalizedIntent, []string) {
	var warnings []string
	f := raw.Fields
	out := domain.NormalizedIntent{
		ModelConfidence: raw.ModelConfidence,
		AmountSource:    domain.AmountSourceNone,
	}
	transcript = strings.TrimSpace(transcript)

	// Amount
	switch {
	case f.HasAmount():
		out.AmountSource = domain.AmountSourceModel
	case transcript != "":
		f.Amount = nil
		if v, ok := NormalizeAmount(transcript, nc.Locale); ok {
			f.Amount = &v
			out.AmountSource = domain.AmountSourceTranscript
		}
	default:
		f.Amount = nil
	}

	// Currency
	if transcript != "" {
		res := DetectCurrency(transcript, nc.Locale, nc.Timezone, nc.DefaultCurrency)
		warnings = append(warnings, res.Warnings...)
		out.CurrencyExplicit = res.Explicit

		switch {
		case f.Currency == "":
			if f.Amount != nil {
				f.Currency = res.Currency
			}
		case f.Currency != res.Currency && (res.Explicit || (res.Currency == domain.CurrencyAMD && f.Currency == domain.CurrencyRUB)):
			n.log.Info("Currency corrected from transcript",
				zap.String("model", string(f.Currency)),
				zap.String("detected", string(res.Currency)),
			)
			warnings = append(warnings, messages.Text(nc.Locale, messages.CurrencyCorrected, f.Currency, res.Currency))
			f.Currency = res.Currency
		}
	} else if f.Currency == "" && f.Amount != nil {
		f.Currency = DefaultCurrency(nc.Locale, nc.Timezone, nc.DefaultCurrency)
	}

	// Dates: model-provided dates are bounded, the transcript only fills a
	// visit date when the model gave none at all.
	f.VisitDate, warnings = n.bound(f.VisitDate, nc, warnings)
	f.NextVisitDate, warnings = n.bound(f.NextVisitDate, nc, warnings)
	if f.VisitDate == nil && f.NextVisitDate == nil && transcript != "" {
		if d, ok := ParseDate(transcript, nc.Today, nc.Locale); ok {
			f.VisitDate, warnings = n.bound(&d, nc, warnings)
		}
	}

	out.Fields = f
	out.Action = domain.Classify(f, out.PaymentEvidence(nc.Mode))
	// A recovered number only deserves a mention when it became money.
	if out.AmountSource == domain.AmountSourceTranscript && out.Action == domain.ActionCreatePayment {
		warnings = append(warnings, messages.Text(nc.Locale, messages.AmountFromTranscript, *f.Amount))
	}
	return out, warnings
}

func (n *Normalizer) bound(d *civil.Date, nc Context, warnings []string) (*civil.Date, []string) {
	if d == nil {
		return nil, warnings
	}
	if !InWindow(*d, nc.Today) {
		n.log.Debug("Date outside allowed window", zap.String("date", d.String()), zap.String("today", nc.Today.String()))
		return nil, append(warnings, messages.Text(nc.Locale, messages.DateOutOfRange, d.String()))
	}
	return d, warnings
}
