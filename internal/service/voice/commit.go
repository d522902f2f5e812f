package voice

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
)

// CommitRequest is a draft the clinician reviewed, possibly edited, and
// confirmed.
type CommitRequest struct {
	DoctorID      string                  `json:"-"`
	PatientID     string                  `json:"patient_id"`
	Mode          domain.Mode             `json:"mode"`
	Locale        domain.Locale           `json:"locale"`
	Timezone      string                  `json:"timezone"`
	Today         *civil.Date             `json:"today"`
	Transcript    string                  `json:"transcript"`
	VisitDate     *civil.Date             `json:"visit_date"`
	NextVisitDate *civil.Date             `json:"next_visit_date"`
	Diagnosis     string                  `json:"diagnosis"`
	Notes         string                  `json:"notes"`
	Status        string                  `json:"patient_status"`
	Amount        *int64                  `json:"amount"`
	Currency      string                  `json:"currency"`
	Comment       string                  `json:"comment"`
	Medications   []domain.MedicationItem `json:"medications"`
}

// Commit writes a confirmed draft. The mode decides the single write;
// missing required fields are invalid_request errors.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (*domain.ActionResult, error) {
	const op = "voice.commit"
	start := time.Now()

	if strings.TrimSpace(req.PatientID) == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, op, "patient_id is required")
	}
	cmd, err := commandForCommit(req)
	if err != nil {
		return nil, err
	}

	_, rc := s.resolve(domain.Request{
		Locale:    req.Locale,
		Timezone:  req.Timezone,
		Today:     req.Today,
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
	})

	ctx, end := s.stage(ctx, "commit")
	res, err := s.router.Dispatch(ctx, cmd, rc)
	end(err)
	if err != nil {
		s.countFailure("commit", err)
		return nil, err
	}

	s.log.Info("Voice draft committed",
		zap.String("doctor_id", req.DoctorID),
		zap.String("patient_id", req.PatientID),
		zap.String("mode", string(req.Mode)),
		zap.String("performed_action", string(res.PerformedAction)),
	)
	// Confirmed by a human, so the intent is recorded at full confidence.
	s.publishApplied(rc, req.Mode, req.Transcript, domain.NormalizedIntent{Action: cmd.Action(), Confidence: 1}, res)
	telemetry.VoiceLatency.Observe(time.Since(start).Seconds())
	telemetry.VoiceCommandsTotal.WithLabelValues("commit", string(cmd.Action()), string(res.PerformedAction)).Inc()
	return &res, nil
}

func commandForCommit(req CommitRequest) (domain.Command, error) {
	const op = "voice.commit"
	invalid := func(msg string) error { return domain.NewError(domain.KindInvalidRequest, op, msg) }

	switch req.Mode {
	case domain.ModeVisit:
		if req.VisitDate == nil {
			return nil, invalid("visit_date is required for mode visit")
		}
		return domain.CreateVisitCommand{
			VisitDate:   req.VisitDate,
			Notes:       req.Notes,
			Diagnosis:   req.Diagnosis,
			Medications: req.Medications,
		}, nil

	case domain.ModeDiagnosis:
		if strings.TrimSpace(req.Diagnosis) == "" {
			return nil, invalid("diagnosis is required for mode diagnosis")
		}
		return domain.UpdatePatientCommand{Diagnosis: req.Diagnosis, Status: req.Status}, nil

	case domain.ModePayment:
		if req.Amount == nil || *req.Amount <= 0 {
			return nil, invalid("amount must be a positive integer for mode payment")
		}
		var currency domain.Currency
		if strings.TrimSpace(req.Currency) != "" {
			c, ok := domain.ParseCurrency(req.Currency)
			if !ok {
				return nil, invalid("unsupported currency " + req.Currency)
			}
			currency = c
		}
		return domain.CreatePaymentCommand{
			Amount:    *req.Amount,
			Currency:  currency,
			VisitDate: req.VisitDate,
			Comment:   req.Comment,
		}, nil

	case domain.ModeMessage:
		note := strings.TrimSpace(req.Notes)
		if note == "" {
			note = strings.TrimSpace(req.Diagnosis)
		}
		if note == "" {
			return nil, invalid("notes or diagnosis is required for mode message")
		}
		return domain.AddNoteCommand{Note: note}, nil
	}
	return nil, invalid("mode " + string(req.Mode) + " cannot be committed")
}
