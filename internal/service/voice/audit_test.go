package voice

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/mocks"
)

func TestAuditWorker_PersistsAppliedActions(t *testing.T) {
	// Arrange
	p := newTestPipeline("оплата 5000 драм", `{"payment": {"amount": 5000}, "visit": {"visit_date": "2025-01-06"}, "confidence": 0.9}`)
	repo := &mocks.MockAuditRepository{}
	if err := NewAuditWorker(p.mq, repo, "", zap.NewNop()).Start(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModePayment, domain.LocaleRussian), true)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.Entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(repo.Entries))
	}
	e := repo.Entries[0]
	if e.DoctorID != testDoctor || e.PerformedAction != out.Result.PerformedAction || e.Transcript != "оплата 5000 драм" {
		t.Errorf("unexpected audit entry %+v", e)
	}
}

func TestAuditWorker_RejectsGarbage(t *testing.T) {
	w := NewAuditWorker(mocks.NewMockMessageQueue(), &mocks.MockAuditRepository{}, "", zap.NewNop())

	if err := w.handle([]byte("{")); err == nil {
		t.Error("expected error for malformed event")
	}
}
