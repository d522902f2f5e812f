package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/messages"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/normalize"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

// RouteContext identifies who a command is applied for and when.
type RouteContext struct {
	DoctorID        string
	PatientID       string
	Locale          domain.Locale
	Timezone        string
	Location        *time.Location
	Today           civil.Date
	DefaultCurrency domain.Currency
}

// Router turns a guarded intent into at most one store write.
type Router struct {
	store  ports.ClinicStore
	scorer *scoring.Scorer
	log    *zap.Logger
	now    func() time.Time
}

func NewRouter(store ports.ClinicStore, scorer *scoring.Scorer, log *zap.Logger) *Router {
	return &Router{store: store, scorer: scorer, log: log, now: time.Now}
}

// Route applies the confidence gate and dispatches the intent's command.
func (r *Router) Route(ctx context.Context, intent domain.NormalizedIntent, rc RouteContext) (domain.ActionResult, error) {
	if !r.scorer.Passes(intent.Confidence) {
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.LowConfidence, intent.Confidence*100)), nil
	}
	if intent.Action == domain.ActionUnknown {
		return pending(domain.PerformedUnknown, messages.Text(rc.Locale, messages.CommandNotRecognized)), nil
	}
	if strings.TrimSpace(rc.PatientID) == "" {
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.PatientRequired)), nil
	}
	return r.Dispatch(ctx, domain.CommandFor(intent.Action, intent.Fields), rc)
}

// Dispatch performs cmd without the confidence gate. Store failures and
// ownership violations come back as voice_action errors.
func (r *Router) Dispatch(ctx context.Context, cmd domain.Command, rc RouteContext) (domain.ActionResult, error) {
	if rc.Location == nil {
		rc.Location = time.UTC
	}
	switch c := cmd.(type) {
	case domain.CreateVisitCommand:
		return r.createVisit(ctx, c, rc)
	case domain.UpdateVisitCommand:
		return r.updateVisit(ctx, c, rc)
	case domain.CreatePaymentCommand:
		return r.createPayment(ctx, c, rc)
	case domain.UpdatePatientCommand:
		return r.updatePatient(ctx, c, rc)
	case domain.AddNoteCommand:
		return r.addNote(ctx, c, rc)
	case domain.AddMedicationCommand:
		return r.addMedication(ctx, c, rc)
	case domain.UnknownCommand:
		return pending(domain.PerformedUnknown, messages.Text(rc.Locale, messages.CommandNotRecognized)), nil
	}
	return domain.ActionResult{}, fmt.Errorf("unhandled command %T", cmd)
}

func (r *Router) createVisit(ctx context.Context, c domain.CreateVisitCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.create_visit"
	var warnings []string

	date := rc.Today
	if c.VisitDate != nil {
		date = *c.VisitDate
	} else {
		warnings = append(warnings, messages.Text(rc.Locale, messages.VisitDateDefaulted))
	}

	if _, err := r.ownedPatient(ctx, op, rc); err != nil {
		return domain.ActionResult{}, err
	}

	visit := &domain.Visit{
		ID:        uuid.NewString(),
		DoctorID:  rc.DoctorID,
		PatientID: rc.PatientID,
		VisitDate: domain.DateToTime(date),
		Notes:     visitNotes(c, rc.Locale),
	}
	if err := r.store.CreateVisit(ctx, visit); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	r.log.Info("Visit created from voice command",
		zap.String("visit_id", visit.ID),
		zap.String("patient_id", rc.PatientID),
		zap.String("visit_date", date.String()),
	)
	return applied(domain.PerformedCreateVisit, map[string]any{
		"table":      "visits",
		"id":         visit.ID,
		"patient_id": rc.PatientID,
		"visit_date": date.String(),
	}, warnings), nil
}

func (r *Router) updateVisit(ctx context.Context, c domain.UpdateVisitCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.schedule_visit"

	if c.NextVisitDate == nil {
		if strings.TrimSpace(c.Notes) != "" {
			return r.addNote(ctx, domain.AddNoteCommand{Note: c.Notes}, rc)
		}
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.NothingToUpdateVisit)), nil
	}

	if _, err := r.ownedPatient(ctx, op, rc); err != nil {
		return domain.ActionResult{}, err
	}

	visit := &domain.Visit{
		ID:        uuid.NewString(),
		DoctorID:  rc.DoctorID,
		PatientID: rc.PatientID,
		VisitDate: domain.DateToTime(*c.NextVisitDate),
		Notes:     strings.TrimSpace(c.Notes),
		Status:    domain.VisitStatusScheduled,
	}
	if err := r.store.CreateVisit(ctx, visit); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	r.log.Info("Visit scheduled from voice command",
		zap.String("visit_id", visit.ID),
		zap.String("patient_id", rc.PatientID),
		zap.String("visit_date", c.NextVisitDate.String()),
	)
	return applied(domain.PerformedScheduleVisit, map[string]any{
		"table":      "visits",
		"id":         visit.ID,
		"patient_id": rc.PatientID,
		"visit_date": c.NextVisitDate.String(),
		"status":     domain.VisitStatusScheduled,
	}, nil), nil
}

func (r *Router) createPayment(ctx context.Context, c domain.CreatePaymentCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.create_payment"

	switch {
	case c.Amount == 0:
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.AmountMissing)), nil
	case c.Amount < 0:
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.AmountNotPositive)), nil
	}

	currency := c.Currency
	if currency == "" {
		currency = normalize.DefaultCurrency(rc.Locale, rc.Timezone, rc.DefaultCurrency)
	}
	paidOn := rc.Today
	if c.VisitDate != nil {
		paidOn = *c.VisitDate
	}

	if _, err := r.ownedPatient(ctx, op, rc); err != nil {
		return domain.ActionResult{}, err
	}

	payment := &domain.PatientPayment{
		ID:        uuid.NewString(),
		DoctorID:  rc.DoctorID,
		PatientID: rc.PatientID,
		Amount:    c.Amount,
		Currency:  currency,
		PaidAt:    domain.DateToTime(paidOn),
		Comment:   strings.TrimSpace(c.Comment),
	}
	if err := r.store.CreatePayment(ctx, payment); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	r.log.Info("Payment created from voice command",
		zap.String("payment_id", payment.ID),
		zap.String("patient_id", rc.PatientID),
		zap.Int64("amount", payment.Amount),
		zap.String("currency", string(currency)),
	)
	return applied(domain.PerformedCreatePayment, map[string]any{
		"table":      "patient_payments",
		"id":         payment.ID,
		"patient_id": rc.PatientID,
		"amount":     payment.Amount,
		"currency":   string(currency),
		"paid_at":    paidOn.String(),
	}, nil), nil
}

func (r *Router) updatePatient(ctx context.Context, c domain.UpdatePatientCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.update_patient"
	var (
		update   domain.PatientUpdate
		warnings []string
		updated  = map[string]any{"table": "patients", "id": rc.PatientID, "patient_id": rc.PatientID}
	)

	if d := strings.TrimSpace(c.Diagnosis); d != "" {
		update.Diagnosis = &d
		updated["diagnosis"] = d
	}
	if s := strings.TrimSpace(c.Status); s != "" {
		if s == domain.PatientStatusInProgress || s == domain.PatientStatusCompleted {
			update.Status = &s
			updated["status"] = s
		} else {
			warnings = append(warnings, messages.Text(rc.Locale, messages.InvalidPatientStatus, s))
		}
	}
	if update.Diagnosis == nil && update.Status == nil {
		res := pending(domain.PerformedNone, messages.Text(rc.Locale, messages.NothingToUpdatePatient))
		res.Warnings = append(warnings, res.Warnings...)
		return res, nil
	}

	if _, err := r.ownedPatient(ctx, op, rc); err != nil {
		return domain.ActionResult{}, err
	}
	if err := r.store.UpdatePatient(ctx, rc.DoctorID, rc.PatientID, update); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	r.log.Info("Patient updated from voice command", zap.String("patient_id", rc.PatientID))
	return applied(domain.PerformedUpdatePatient, updated, warnings), nil
}

func (r *Router) addNote(ctx context.Context, c domain.AddNoteCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.add_note"

	note := strings.TrimSpace(c.Note)
	if note == "" {
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.NoteEmpty)), nil
	}

	patient, err := r.ownedPatient(ctx, op, rc)
	if err != nil {
		return domain.ActionResult{}, err
	}

	line := fmt.Sprintf("[%s] %s", r.now().In(rc.Location).Format("02.01.2006 15:04"), note)
	notes := line
	if existing := strings.TrimRight(patient.Notes, "\n "); existing != "" {
		notes = existing + "\n\n" + line
	}
	if err := r.store.UpdatePatient(ctx, rc.DoctorID, rc.PatientID, domain.PatientUpdate{Notes: &notes}); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	r.log.Info("Note added from voice command", zap.String("patient_id", rc.PatientID))
	return applied(domain.PerformedAddNote, map[string]any{
		"table":      "patients",
		"id":         rc.PatientID,
		"patient_id": rc.PatientID,
		"note":       line,
	}, nil), nil
}

func (r *Router) addMedication(ctx context.Context, c domain.AddMedicationCommand, rc RouteContext) (domain.ActionResult, error) {
	const op = "voice.add_medication"

	var items []domain.PatientMedication
	for _, m := range c.Items {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		items = append(items, domain.PatientMedication{
			ID:        uuid.NewString(),
			DoctorID:  rc.DoctorID,
			PatientID: rc.PatientID,
			Name:      name,
			Dosage:    joinNonEmpty(", ", m.Dose, m.Frequency, m.Duration),
			Comment:   strings.TrimSpace(m.Comment),
		})
	}
	if len(items) == 0 {
		return pending(domain.PerformedNone, messages.Text(rc.Locale, messages.NoMedications)), nil
	}

	if _, err := r.ownedPatient(ctx, op, rc); err != nil {
		return domain.ActionResult{}, err
	}
	if err := r.store.CreateMedications(ctx, items); err != nil {
		return domain.ActionResult{}, storeError(op, err)
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	r.log.Info("Medications added from voice command",
		zap.String("patient_id", rc.PatientID),
		zap.Int("count", len(items)),
	)
	return applied(domain.PerformedAddMedication, map[string]any{
		"table":      "patient_medications",
		"ids":        ids,
		"patient_id": rc.PatientID,
		"count":      len(items),
	}, nil), nil
}

// ownedPatient loads the target patient and checks it belongs to the caller.
func (r *Router) ownedPatient(ctx context.Context, op string, rc RouteContext) (*domain.Patient, error) {
	patient, err := r.store.GetPatient(ctx, rc.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return nil, domain.WrapError(domain.KindVoiceAction, op, "patient not found", err)
		}
		return nil, storeError(op, err)
	}
	if patient.DoctorID != rc.DoctorID {
		r.log.Warn("Voice command for a patient of another doctor",
			zap.String("doctor_id", rc.DoctorID),
			zap.String("patient_id", rc.PatientID),
		)
		return nil, domain.WrapError(domain.KindVoiceAction, op, "patient not accessible", domain.ErrPatientAccessDenied)
	}
	return patient, nil
}

func storeError(op string, err error) error {
	return domain.WrapError(domain.KindVoiceAction, op, "store write failed", err)
}

func visitNotes(c domain.CreateVisitCommand, locale domain.Locale) string {
	parts := []string{strings.TrimSpace(c.Notes)}
	if d := strings.TrimSpace(c.Diagnosis); d != "" {
		parts = append(parts, messages.Text(locale, messages.DiagnosisLabel, d))
	}
	var names []string
	for _, m := range c.Medications {
		if n := strings.TrimSpace(m.Name); n != "" {
			names = append(names, joinNonEmpty(" ", n, m.Dose))
		}
	}
	if len(names) > 0 {
		parts = append(parts, messages.Text(locale, messages.MedicationsLabel, strings.Join(names, ", ")))
	}
	return joinNonEmpty("\n", parts...)
}

func joinNonEmpty(sep string, vals ...string) string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}

func applied(action domain.PerformedAction, updated map[string]any, warnings []string) domain.ActionResult {
	if warnings == nil {
		warnings = []string{}
	}
	return domain.ActionResult{PerformedAction: action, Updated: updated, Warnings: warnings}
}

func pending(action domain.PerformedAction, warning string) domain.ActionResult {
	return domain.ActionResult{
		PerformedAction:   action,
		Warnings:          []string{warning},
		NeedsConfirmation: true,
	}
}
