package scoring

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestScore(t *testing.T) {
	today := civil.Date{Year: 2025, Month: time.January, Day: 6}
	s := NewScorer(DefaultWeights(), DefaultThreshold)

	tests := []struct {
		name     string
		fields   domain.Fields
		warnings int
		want     float64
	}{
		{"empty", domain.Fields{}, 0, 0.5},
		{"payment with currency", domain.Fields{Amount: int64Ptr(20000), Currency: domain.CurrencyAMD}, 0, 0.75},
		{"payment with warning", domain.Fields{Amount: int64Ptr(20000), Currency: domain.CurrencyAMD}, 1, 0.7},
		{"visit only", domain.Fields{VisitDate: &today}, 0, 0.65},
		{"visit with diagnosis", domain.Fields{VisitDate: &today, Diagnosis: "caries"}, 0, 0.8},
		{"everything clamps to one", domain.Fields{
			Amount: int64Ptr(1), Currency: domain.CurrencyAMD, VisitDate: &today, NextVisitDate: &today,
			Diagnosis: "x", Notes: "y",
		}, 0, 1},
		{"penalties clamp to zero", domain.Fields{}, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.fields, tt.warnings); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPasses(t *testing.T) {
	s := NewScorer(DefaultWeights(), 0)

	if s.Threshold() != DefaultThreshold {
		t.Fatalf("expected default threshold, got %v", s.Threshold())
	}
	if !s.Passes(0.75) {
		t.Error("expected 0.75 to pass")
	}
	if s.Passes(0.7499) {
		t.Error("expected 0.7499 to fail")
	}
}

func TestGuard_DropsMoneyFromNonPayment(t *testing.T) {
	for _, action := range []domain.Action{
		domain.ActionCreateVisit, domain.ActionUpdateVisit, domain.ActionUpdatePatient,
		domain.ActionAddNote, domain.ActionAddMedication, domain.ActionUnknown,
	} {
		intent := domain.NormalizedIntent{
			Action:       action,
			Fields:       domain.Fields{Amount: int64Ptr(15), Currency: domain.CurrencyAMD, PaymentComment: "x"},
			AmountSource: domain.AmountSourceModel,
		}

		got := Guard(intent)

		if got.Fields.Amount != nil || got.Fields.Currency != "" || got.Fields.PaymentComment != "" {
			t.Errorf("%s: expected money fields dropped, got %+v", action, got.Fields)
		}
		if intent.Fields.Amount == nil {
			t.Errorf("%s: guard must not mutate its input", action)
		}
	}
}

func TestGuard_KeepsPayment(t *testing.T) {
	intent := domain.NormalizedIntent{
		Action: domain.ActionCreatePayment,
		Fields: domain.Fields{Amount: int64Ptr(300000), Currency: domain.CurrencyAMD},
	}

	got := Guard(intent)

	if got.Fields.Amount == nil || *got.Fields.Amount != 300000 {
		t.Errorf("expected amount kept, got %v", got.Fields.Amount)
	}
}
