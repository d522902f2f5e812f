package voice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/mocks"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

type testPipeline struct {
	svc   *Service
	stt   *mocks.MockTranscriber
	llm   *mocks.MockLanguageModel
	store *mocks.MockClinicStore
	mq    *mocks.MockMessageQueue
}

func newTestPipeline(transcript, reply string) *testPipeline {
	p := &testPipeline{
		stt:   &mocks.MockTranscriber{Text: transcript},
		llm:   &mocks.MockLanguageModel{Reply: reply},
		store: newTestStore(),
		mq:    mocks.NewMockMessageQueue(),
	}
	p.svc = NewService(p.stt, p.llm, p.store, scoring.NewScorer(scoring.DefaultWeights(), 0.75), p.mq,
		Config{DefaultCurrency: domain.CurrencyAMD}, zap.NewNop())
	return p
}

func testRequest(mode domain.Mode, locale domain.Locale) domain.Request {
	today := testToday
	return domain.Request{
		Clip:      domain.AudioClip{Data: []byte("RIFF....WAVE"), ContentType: "audio/wav", Filename: "a.wav"},
		Mode:      mode,
		Locale:    locale,
		Timezone:  "Asia/Yerevan",
		Today:     &today,
		DoctorID:  testDoctor,
		PatientID: testPatient,
	}
}

func TestAuto_PaymentWinsOverVisitDate(t *testing.T) {
	// Arrange
	p := newTestPipeline("Сегодня визит, оплата 20000 dram",
		`{"action": "create_visit", "visit": {"visit_date": "2025-01-06"}, "payment": {"amount": 20000, "currency": "AMD"}, "confidence": 0.9}`)

	// Act
	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModeVisit, domain.LocaleRussian), true)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Action != domain.ActionCreatePayment {
		t.Fatalf("expected create_payment, got %s", out.Action)
	}
	if out.Result.PerformedAction != domain.PerformedCreatePayment {
		t.Fatalf("expected payment written, got %+v", out.Result)
	}
	if len(p.store.Payments) != 1 || len(p.store.Visits) != 0 {
		t.Errorf("expected exactly one payment write, got %d payments and %d visits", len(p.store.Payments), len(p.store.Visits))
	}
	if pay := p.store.Payments[0]; pay.Amount != 20000 || pay.Currency != domain.CurrencyAMD {
		t.Errorf("expected 20000 AMD, got %d %s", pay.Amount, pay.Currency)
	}
	if out.NeedsConfirmation {
		t.Error("expected no confirmation for an applied action")
	}

	events := p.mq.GetPublishedMessages(SubjectActionApplied)
	if len(events) != 1 {
		t.Fatalf("expected one applied event, got %d", len(events))
	}
	var entry domain.VoiceCommandLog
	if err := json.Unmarshal(events[0], &entry); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
	if entry.PerformedAction != domain.PerformedCreatePayment || entry.RecordID == "" {
		t.Errorf("unexpected event %+v", entry)
	}
}

func TestDraft_GuardDropsAmountOnVisit(t *testing.T) {
	p := newTestPipeline("aysor vizit, atam 15",
		`{"action": "create_visit", "visit": {"visit_date": "2025-01-06", "notes": "atam 15"}, "confidence": 0.8}`)

	draft, err := p.svc.Draft(context.Background(), testRequest(domain.ModeVisit, domain.LocaleArmenian))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if draft.Structured.Amount != nil || draft.Structured.Currency != nil {
		t.Errorf("expected amount and currency dropped, got %v %v", draft.Structured.Amount, draft.Structured.Currency)
	}
	if draft.Structured.VisitDate == nil || *draft.Structured.VisitDate != testToday {
		t.Errorf("expected visit today, got %v", draft.Structured.VisitDate)
	}
	if p.store.Writes() != 0 {
		t.Error("expected draft to write nothing")
	}
}

func TestAuto_SilentAudio(t *testing.T) {
	p := newTestPipeline("   ", `{}`)

	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModeVisit, domain.LocaleArmenian), true)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Transcript != "" || len(out.Warnings) != 1 {
		t.Errorf("expected empty transcript with one warning, got %q %v", out.Transcript, out.Warnings)
	}
	if p.llm.Calls != 0 {
		t.Error("expected no language model call for silence")
	}
	if out.Result.PerformedAction != domain.PerformedNone || !out.NeedsConfirmation {
		t.Errorf("expected none with confirmation, got %+v", out.Result)
	}
	if p.store.Writes() != 0 {
		t.Error("expected no writes")
	}
}

func TestAuto_LowConfidenceNeedsConfirmation(t *testing.T) {
	p := newTestPipeline("заметка", `{"visit": {"notes": "позвонить"}, "confidence": 0.99}`)

	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModeMessage, domain.LocaleRussian), true)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Confidence >= 0.75 {
		t.Fatalf("expected heuristic confidence below threshold, got %v", out.Confidence)
	}
	if out.Result.PerformedAction != domain.PerformedNone || !out.NeedsConfirmation {
		t.Errorf("expected gate to hold, got %+v", out.Result)
	}
	if len(p.mq.GetPublishedMessages(SubjectActionApplied)) != 0 {
		t.Error("expected no event without a write")
	}
}

func TestAuto_StoreFailureIsReportedInResult(t *testing.T) {
	p := newTestPipeline("оплата 5000 драм", `{"payment": {"amount": 5000, "currency": "AMD"}, "visit": {"visit_date": "2025-01-06"}, "confidence": 0.9}`)
	p.store.CreatePaymentFunc = func(ctx context.Context, pay *domain.PatientPayment) error {
		return errors.New("db down")
	}

	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModePayment, domain.LocaleRussian), true)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Result.PerformedAction != domain.PerformedError || len(out.Result.Warnings) != 1 {
		t.Errorf("expected error result with one warning, got %+v", out.Result)
	}
}

func TestAuto_ResultCarriesPipelineWarnings(t *testing.T) {
	// Arrange
	p := newTestPipeline("оплата 20000 драм",
		`{"payment": {"amount": 20000, "currency": "AMD"}, "visit": {"visit_date": "2025-01-06"}, "next_visit_date": "2030-01-01", "confidence": 0.9}`)

	// Act
	out, err := p.svc.Auto(context.Background(), testRequest(domain.ModePayment, domain.LocaleRussian), true)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Result.PerformedAction != domain.PerformedCreatePayment {
		t.Fatalf("expected payment written, got %+v", out.Result)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected one pipeline warning, got %v", out.Warnings)
	}
	if len(out.Result.Warnings) == 0 || out.Result.Warnings[0] != out.Warnings[0] {
		t.Errorf("expected result to carry %q, got %v", out.Warnings[0], out.Result.Warnings)
	}
	if !strings.Contains(out.Result.Warnings[0], "2030-01-01") {
		t.Errorf("expected out-of-range date warning, got %v", out.Result.Warnings)
	}
}

func TestAuto_ProviderErrors(t *testing.T) {
	p := newTestPipeline("", "")
	p.stt.TranscribeFunc = func(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error) {
		return "", errors.New("503 from provider")
	}

	_, err := p.svc.Auto(context.Background(), testRequest(domain.ModeVisit, domain.LocaleAuto), true)

	if !domain.IsKind(err, domain.KindTranscription) || !domain.IsRetriable(err) {
		t.Errorf("expected retriable transcription error, got %v", err)
	}
	if p.stt.LastLocale != domain.LocaleAuto {
		t.Errorf("expected auto locale passed to the provider, got %s", p.stt.LastLocale)
	}

	p = newTestPipeline("визит", "not json")
	_, err = p.svc.Draft(context.Background(), testRequest(domain.ModeVisit, domain.LocaleRussian))
	if !domain.IsKind(err, domain.KindParsing) {
		t.Errorf("expected parsing error, got %v", err)
	}
}

func TestAuto_InvalidAudioStopsEarly(t *testing.T) {
	p := newTestPipeline("x", "{}")
	req := testRequest(domain.ModeVisit, domain.LocaleRussian)
	req.Clip.Data = nil

	_, err := p.svc.Auto(context.Background(), req, true)

	if !domain.IsKind(err, domain.KindAudioValidation) {
		t.Errorf("expected audio validation error, got %v", err)
	}
	if p.stt.Calls != 0 {
		t.Error("expected no transcription for invalid audio")
	}
}

func TestCommit(t *testing.T) {
	amount := int64(15000)
	tests := []struct {
		name     string
		req      CommitRequest
		want     domain.PerformedAction
		wantKind domain.ErrorKind
	}{
		{"visit", CommitRequest{Mode: domain.ModeVisit, VisitDate: &testToday, Notes: "checkup"}, domain.PerformedCreateVisit, ""},
		{"visit without date", CommitRequest{Mode: domain.ModeVisit}, "", domain.KindInvalidRequest},
		{"diagnosis", CommitRequest{Mode: domain.ModeDiagnosis, Diagnosis: "caries"}, domain.PerformedUpdatePatient, ""},
		{"payment", CommitRequest{Mode: domain.ModePayment, Amount: &amount, Currency: "usd"}, domain.PerformedCreatePayment, ""},
		{"payment bad currency", CommitRequest{Mode: domain.ModePayment, Amount: &amount, Currency: "GBP"}, "", domain.KindInvalidRequest},
		{"message from diagnosis", CommitRequest{Mode: domain.ModeMessage, Diagnosis: "call back"}, domain.PerformedAddNote, ""},
		{"patient mode", CommitRequest{Mode: domain.ModePatient}, "", domain.KindInvalidRequest},
		{"foreign patient", CommitRequest{Mode: domain.ModeDiagnosis, Diagnosis: "x", PatientID: "missing"}, "", domain.KindVoiceAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline("", "")
			tt.req.DoctorID = testDoctor
			if tt.req.PatientID == "" {
				tt.req.PatientID = testPatient
			}
			tt.req.Today = &testToday

			res, err := p.svc.Commit(context.Background(), tt.req)

			if tt.wantKind != "" {
				if !domain.IsKind(err, tt.wantKind) {
					t.Fatalf("expected %s error, got %v", tt.wantKind, err)
				}
				if p.store.Writes() != 0 {
					t.Error("expected no writes on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.PerformedAction != tt.want {
				t.Errorf("expected %s, got %s", tt.want, res.PerformedAction)
			}
			if p.store.Writes() != 1 {
				t.Errorf("expected exactly one write, got %d", p.store.Writes())
			}
		})
	}
}

func TestParsePatient_Service(t *testing.T) {
	p := newTestPipeline("Ани Петросян 091 234 567", `{"first_name": "Ани", "last_name": "Петросян", "phone": "091 234 567"}`)

	draft, err := p.svc.ParsePatient(context.Background(), testRequest(domain.ModePatient, domain.LocaleRussian))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if draft.Patient.Phone != "+37491234567" || draft.Transcript == "" {
		t.Errorf("unexpected patient draft %+v", draft)
	}
	if p.store.Writes() != 0 {
		t.Error("expected patient parse to write nothing")
	}
}
