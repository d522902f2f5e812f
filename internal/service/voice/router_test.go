package voice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/mocks"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

const (
	testDoctor  = "doctor-1"
	testPatient = "patient-1"
)

func newTestRouter(store *mocks.MockClinicStore) *Router {
	r := NewRouter(store, scoring.NewScorer(scoring.DefaultWeights(), 0), zap.NewNop())
	r.now = func() time.Time { return time.Date(2025, time.January, 6, 10, 30, 0, 0, time.UTC) }
	return r
}

func newTestStore() *mocks.MockClinicStore {
	return mocks.NewMockClinicStore(domain.Patient{ID: testPatient, DoctorID: testDoctor, FirstName: "Ani", Notes: "allergy: penicillin"})
}

func testRouteContext() RouteContext {
	return RouteContext{
		DoctorID:  testDoctor,
		PatientID: testPatient,
		Locale:    domain.LocaleEnglish,
		Timezone:  "Asia/Yerevan",
		Location:  time.UTC,
		Today:     testToday,
	}
}

func intentOf(action domain.Action, f domain.Fields, confidence float64) domain.NormalizedIntent {
	return domain.NormalizedIntent{Action: action, Fields: f, Confidence: confidence}
}

func TestRoute_ConfidenceGate(t *testing.T) {
	// Arrange
	store := newTestStore()
	r := newTestRouter(store)
	amount := int64(50000)
	intent := intentOf(domain.ActionCreatePayment, domain.Fields{Amount: &amount, Currency: domain.CurrencyAMD, VisitDate: &testToday}, 0.74)

	// Act
	res, err := r.Route(context.Background(), intent, testRouteContext())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PerformedAction != domain.PerformedNone || !res.NeedsConfirmation {
		t.Errorf("expected none with confirmation, got %+v", res)
	}
	if store.Writes() != 0 {
		t.Errorf("expected no writes below threshold, got %d", store.Writes())
	}
}

func TestRoute_UnknownAndMissingPatient(t *testing.T) {
	store := newTestStore()
	r := newTestRouter(store)

	res, _ := r.Route(context.Background(), intentOf(domain.ActionUnknown, domain.Fields{}, 0.9), testRouteContext())
	if res.PerformedAction != domain.PerformedUnknown || !res.NeedsConfirmation {
		t.Errorf("expected unknown with confirmation, got %+v", res)
	}

	rc := testRouteContext()
	rc.PatientID = ""
	res, _ = r.Route(context.Background(), intentOf(domain.ActionAddNote, domain.Fields{Notes: "x"}, 0.9), rc)
	if res.PerformedAction != domain.PerformedNone || !res.NeedsConfirmation {
		t.Errorf("expected none without a patient, got %+v", res)
	}
	if store.Writes() != 0 {
		t.Errorf("expected no writes, got %d", store.Writes())
	}
}

func TestDispatch_CreateVisit(t *testing.T) {
	store := newTestStore()
	r := newTestRouter(store)
	cmd := domain.CreateVisitCommand{
		Notes:       "filling 36",
		Diagnosis:   "caries",
		Medications: []domain.MedicationItem{{Name: "Nimesil", Dose: "100 mg"}},
	}

	res, err := r.Dispatch(context.Background(), cmd, testRouteContext())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PerformedAction != domain.PerformedCreateVisit {
		t.Fatalf("expected create_visit, got %s", res.PerformedAction)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected visit-date-defaulted warning, got %v", res.Warnings)
	}
	if len(store.Visits) != 1 {
		t.Fatalf("expected one visit, got %d", len(store.Visits))
	}
	v := store.Visits[0]
	if !v.VisitDate.Equal(domain.DateToTime(testToday)) {
		t.Errorf("expected visit today, got %s", v.VisitDate)
	}
	want := "filling 36\nDiagnosis: caries\nMedications: Nimesil 100 mg"
	if v.Notes != want {
		t.Errorf("expected notes %q, got %q", want, v.Notes)
	}
}

func TestDispatch_UpdateVisit(t *testing.T) {
	next := testToday.AddDays(7)

	t.Run("schedules a visit", func(t *testing.T) {
		store := newTestStore()
		res, err := newTestRouter(store).Dispatch(context.Background(), domain.UpdateVisitCommand{NextVisitDate: &next}, testRouteContext())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.PerformedAction != domain.PerformedScheduleVisit {
			t.Errorf("expected schedule_visit, got %s", res.PerformedAction)
		}
		if len(store.Visits) != 1 || store.Visits[0].Status != domain.VisitStatusScheduled {
			t.Errorf("expected one scheduled visit, got %+v", store.Visits)
		}
	})

	t.Run("degrades to note", func(t *testing.T) {
		store := newTestStore()
		res, _ := newTestRouter(store).Dispatch(context.Background(), domain.UpdateVisitCommand{Notes: "call back"}, testRouteContext())
		if res.PerformedAction != domain.PerformedAddNote {
			t.Errorf("expected add_note, got %s", res.PerformedAction)
		}
	})

	t.Run("nothing to do", func(t *testing.T) {
		store := newTestStore()
		res, _ := newTestRouter(store).Dispatch(context.Background(), domain.UpdateVisitCommand{}, testRouteContext())
		if res.PerformedAction != domain.PerformedNone || store.Writes() != 0 {
			t.Errorf("expected none and no writes, got %+v", res)
		}
	})
}

func TestDispatch_CreatePayment(t *testing.T) {
	// Arrange
	store := newTestStore()
	r := newTestRouter(store)
	visit := testToday.AddDays(-2)

	// Act
	res, err := r.Dispatch(context.Background(), domain.CreatePaymentCommand{Amount: 300000, VisitDate: &visit}, testRouteContext())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PerformedAction != domain.PerformedCreatePayment {
		t.Fatalf("expected create_payment, got %s", res.PerformedAction)
	}
	p := store.Payments[0]
	if p.Amount != 300000 || p.Currency != domain.CurrencyAMD {
		t.Errorf("expected 300000 AMD, got %d %s", p.Amount, p.Currency)
	}
	if !p.PaidAt.Equal(domain.DateToTime(visit)) {
		t.Errorf("expected paid on visit date, got %s", p.PaidAt)
	}

	res, _ = r.Dispatch(context.Background(), domain.CreatePaymentCommand{Amount: -5}, testRouteContext())
	if res.PerformedAction != domain.PerformedNone {
		t.Errorf("expected negative amount to be refused, got %s", res.PerformedAction)
	}
}

func TestDispatch_UpdatePatient(t *testing.T) {
	store := newTestStore()
	r := newTestRouter(store)

	res, err := r.Dispatch(context.Background(), domain.UpdatePatientCommand{Diagnosis: "pulpitis", Status: "cured"}, testRouteContext())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PerformedAction != domain.PerformedUpdatePatient {
		t.Fatalf("expected update_patient, got %s", res.PerformedAction)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected invalid status warning, got %v", res.Warnings)
	}
	u := store.Updates[0]
	if u.Diagnosis == nil || *u.Diagnosis != "pulpitis" || u.Status != nil {
		t.Errorf("expected only diagnosis updated, got %+v", u)
	}
}

func TestDispatch_AddNoteAppendsTimestampedLine(t *testing.T) {
	store := newTestStore()
	r := newTestRouter(store)

	_, err := r.Dispatch(context.Background(), domain.AddNoteCommand{Note: "prefers mornings"}, testRouteContext())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "allergy: penicillin\n\n[06.01.2025 10:30] prefers mornings"
	if got := store.Patients[testPatient].Notes; got != want {
		t.Errorf("expected notes %q, got %q", want, got)
	}
}

func TestDispatch_AddMedication(t *testing.T) {
	store := newTestStore()
	r := newTestRouter(store)
	cmd := domain.AddMedicationCommand{Items: []domain.MedicationItem{
		{Name: "Amoxiclav", Dose: "625 mg", Frequency: "2x day", Duration: "5 days"},
		{Name: "  "},
		{Name: "Chlorhexidine"},
	}}

	res, err := r.Dispatch(context.Background(), cmd, testRouteContext())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PerformedAction != domain.PerformedAddMedication || res.Updated["count"] != 2 {
		t.Errorf("expected two medications, got %+v", res)
	}
	if store.Medications[0].Dosage != "625 mg, 2x day, 5 days" {
		t.Errorf("unexpected dosage %q", store.Medications[0].Dosage)
	}
}

func TestDispatch_Ownership(t *testing.T) {
	store := mocks.NewMockClinicStore(domain.Patient{ID: testPatient, DoctorID: "someone-else"})
	r := newTestRouter(store)

	_, err := r.Dispatch(context.Background(), domain.AddNoteCommand{Note: "x"}, testRouteContext())
	if !domain.IsKind(err, domain.KindVoiceAction) || !errors.Is(err, domain.ErrPatientAccessDenied) {
		t.Errorf("expected access denied voice_action error, got %v", err)
	}

	rc := testRouteContext()
	rc.PatientID = "missing"
	_, err = r.Dispatch(context.Background(), domain.CreatePaymentCommand{Amount: 100}, rc)
	if !errors.Is(err, domain.ErrPatientNotFound) {
		t.Errorf("expected patient not found, got %v", err)
	}
	if store.Writes() != 0 {
		t.Errorf("expected no writes, got %d", store.Writes())
	}
}

func TestDispatch_StoreFailure(t *testing.T) {
	store := newTestStore()
	store.CreateVisitFunc = func(ctx context.Context, v *domain.Visit) error { return errors.New("connection reset") }
	r := newTestRouter(store)

	_, err := r.Dispatch(context.Background(), domain.CreateVisitCommand{VisitDate: &testToday}, testRouteContext())

	if !domain.IsKind(err, domain.KindVoiceAction) || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
