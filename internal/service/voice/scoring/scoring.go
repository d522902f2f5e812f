// Package scoring gates auto-commit: a completeness score over the extracted
// fields, and the guard that drops money fields from non-payment commands.
package scoring

import (
	"math"
	"strings"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// DefaultThreshold is the confidence below which nothing is written.
const DefaultThreshold = 0.75

// Weights of the completeness score. The score is a heuristic gate, not a
// calibrated probability.
type Weights struct {
	Base           float64 `mapstructure:"base"`
	Amount         float64 `mapstructure:"amount"`
	VisitDate      float64 `mapstructure:"visit_date"`
	NextVisitDate  float64 `mapstructure:"next_visit_date"`
	Diagnosis      float64 `mapstructure:"diagnosis"`
	Notes          float64 `mapstructure:"notes"`
	Currency       float64 `mapstructure:"currency"`
	WarningPenalty float64 `mapstructure:"warning_penalty"`
}

func DefaultWeights() Weights {
	return Weights{
		Base:           0.5,
		Amount:         0.2,
		VisitDate:      0.15,
		NextVisitDate:  0.1,
		Diagnosis:      0.15,
		Notes:          0.1,
		Currency:       0.05,
		WarningPenalty: 0.05,
	}
}

type Scorer struct {
	weights   Weights
	threshold float64
}

func NewScorer(weights Weights, threshold float64) *Scorer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Scorer{weights: weights, threshold: threshold}
}

func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score sums the weights of the populated fields, subtracts the warning
// penalty and clamps to [0,1], rounded to four decimals.
func (s *Scorer) Score(f domain.Fields, warnings int) float64 {
	w := s.weights
	score := w.Base
	if f.HasAmount() {
		score += w.Amount
	}
	if f.VisitDate != nil {
		score += w.VisitDate
	}
	if f.NextVisitDate != nil {
		score += w.NextVisitDate
	}
	if strings.TrimSpace(f.Diagnosis) != "" {
		score += w.Diagnosis
	}
	if strings.TrimSpace(f.Notes) != "" {
		score += w.Notes
	}
	if f.Currency != "" {
		score += w.Currency
	}
	score -= float64(warnings) * w.WarningPenalty

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*1e4) / 1e4
}

// Passes is the confidence gate.
func (s *Scorer) Passes(confidence float64) bool {
	return confidence >= s.threshold
}

// Guard drops amount, currency and payment comment unless the intent is a
// payment. Numbers in visit, diagnosis or note speech are dates or
// identifiers.
func Guard(intent domain.NormalizedIntent) domain.NormalizedIntent {
	if intent.Action == domain.ActionCreatePayment {
		return intent
	}
	intent.Fields.Amount = nil
	intent.Fields.Currency = ""
	intent.Fields.PaymentComment = ""
	intent.AmountSource = domain.AmountSourceNone
	return intent
}
