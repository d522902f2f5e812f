package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/messages"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/normalize"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/prompts"
)

const maxLoggedPayload = 500

// Parser asks the language model for a structured reading of a transcript.
type Parser struct {
	llm ports.LanguageModel
	log *zap.Logger
}

func NewParser(llm ports.LanguageModel, log *zap.Logger) *Parser {
	return &Parser{llm: llm, log: log}
}

// modelReply accepts both the nested schema and the older flat one.
type modelReply struct {
	Action  string `json:"action"`
	Patient *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		PatientID string `json:"patient_id"`
	} `json:"patient"`
	Visit *struct {
		VisitDate     string          `json:"visit_date"`
		NextVisitDate string          `json:"next_visit_date"`
		Notes         string          `json:"notes"`
		Medications   json.RawMessage `json:"medications"`
	} `json:"visit"`
	Payment *struct {
		Amount   json.RawMessage `json:"amount"`
		Currency string          `json:"currency"`
		Comment  string          `json:"comment"`
	} `json:"payment"`
	Diagnosis     string          `json:"diagnosis"`
	PatientStatus string          `json:"patient_status"`
	Confidence    json.RawMessage `json:"confidence"`

	VisitDate     string          `json:"visit_date"`
	NextVisitDate string          `json:"next_visit_date"`
	Notes         string          `json:"notes"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
	Medications   json.RawMessage `json:"medications"`
}

// Parse calls the model and maps its reply onto a RawIntent. Malformed dates
// are dropped with a warning; malformed JSON is a parsing error carrying
// the payload.
func (p *Parser) Parse(ctx context.Context, locale domain.Locale, uc prompts.UserContext) (domain.RawIntent, []string, error) {
	const op = "voice.parse"

	user, err := prompts.UserMessage(uc)
	if err != nil {
		return domain.RawIntent{}, nil, domain.WrapError(domain.KindParsing, op, "failed to build prompt", err)
	}

	reply, err := p.llm.Complete(ctx, prompts.System(locale), user)
	if err != nil {
		return domain.RawIntent{}, nil, domain.WrapError(domain.KindParsing, op, "language model call failed", err)
	}

	var mr modelReply
	if err := decodeReply(reply, &mr); err != nil {
		p.log.Error("Language model returned invalid JSON",
			zap.String("payload", truncate(reply, maxLoggedPayload)),
			zap.Error(err),
		)
		return domain.RawIntent{}, nil, &domain.Error{
			Kind:    domain.KindParsing,
			Op:      op,
			Message: "language model returned invalid JSON",
			Cause:   err,
			Payload: reply,
		}
	}

	raw, warnings := mapReply(mr, locale)
	raw.Payload = reply
	p.log.Debug("Parsed model reply",
		zap.String("model_action", mr.Action),
		zap.String("action", string(raw.Action)),
		zap.Float64("model_confidence", raw.ModelConfidence),
	)
	return raw, warnings, nil
}

func mapReply(mr modelReply, locale domain.Locale) (domain.RawIntent, []string) {
	var (
		f        domain.Fields
		warnings []string
	)

	visitDate, nextDate, notes := mr.VisitDate, mr.NextVisitDate, mr.Notes
	meds := mr.Medications
	if mr.Visit != nil {
		visitDate = firstNonEmpty(mr.Visit.VisitDate, visitDate)
		nextDate = firstNonEmpty(mr.Visit.NextVisitDate, nextDate)
		notes = firstNonEmpty(mr.Visit.Notes, notes)
		if len(mr.Visit.Medications) > 0 {
			meds = mr.Visit.Medications
		}
	}
	f.VisitDate, warnings = modelDate(visitDate, locale, warnings)
	f.NextVisitDate, warnings = modelDate(nextDate, locale, warnings)
	f.Notes = strings.TrimSpace(notes)
	f.Medications = decodeMedications(meds)

	amount, currency := mr.Amount, mr.Currency
	if mr.Payment != nil {
		if len(mr.Payment.Amount) > 0 && string(mr.Payment.Amount) != "null" {
			amount = mr.Payment.Amount
		}
		currency = firstNonEmpty(mr.Payment.Currency, currency)
		f.PaymentComment = strings.TrimSpace(mr.Payment.Comment)
	}
	f.Amount = decodeAmount(amount, locale)
	if c, ok := domain.ParseCurrency(currency); ok {
		f.Currency = c
	}

	f.Diagnosis = strings.TrimSpace(mr.Diagnosis)
	f.PatientStatus = strings.TrimSpace(mr.PatientStatus)
	if mr.Patient != nil {
		f.Patient = domain.PatientHint{
			ID:        strings.TrimSpace(mr.Patient.PatientID),
			FirstName: strings.TrimSpace(mr.Patient.FirstName),
			LastName:  strings.TrimSpace(mr.Patient.LastName),
			Phone:     strings.TrimSpace(mr.Patient.Phone),
		}
	}

	return domain.RawIntent{
		Action:          domain.Classify(f, true),
		Fields:          f,
		ModelConfidence: decodeConfidence(mr.Confidence),
	}, warnings
}

// decodeReply strips Markdown code fences before decoding.
func decodeReply(reply string, v any) error {
	body := stripCodeFences(reply)
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	return dec.Decode(v)
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func modelDate(s string, locale domain.Locale, warnings []string) (*civil.Date, []string) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil, warnings
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return nil, append(warnings, messages.Text(locale, messages.DateInvalid, s))
	}
	return &d, warnings
}

// decodeAmount accepts a JSON number or a spoken-style string ("300.000").
func decodeAmount(raw json.RawMessage, locale domain.Locale) *int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n <= 0 || n >= math.MaxInt64 || math.IsNaN(n) {
			return nil
		}
		v := int64(n)
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := normalize.NormalizeAmount(s, locale); ok {
			return &v
		}
	}
	return nil
}

func decodeConfidence(raw json.RawMessage) float64 {
	var c float64
	if len(raw) == 0 || json.Unmarshal(raw, &c) != nil || math.IsNaN(c) {
		return 0
	}
	return math.Max(0, math.Min(1, c))
}

// decodeMedications accepts a list of items, a list of names or one string.
func decodeMedications(raw json.RawMessage) []domain.MedicationItem {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []domain.MedicationItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return keepNamed(items)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		for _, n := range names {
			items = append(items, domain.MedicationItem{Name: n})
		}
		return keepNamed(items)
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return keepNamed([]domain.MedicationItem{{Name: one}})
	}
	return nil
}

func keepNamed(items []domain.MedicationItem) []domain.MedicationItem {
	out := items[:0]
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type patientReply struct {
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Phone      string          `json:"phone"`
	BirthDate  string          `json:"birth_date"`
	Diagnosis  string          `json:"diagnosis"`
	Notes      string          `json:"notes"`
	Confidence json.RawMessage `json:"confidence"`
}

// ParsePatient extracts a new patient card from an intake dictation.
func (p *Parser) ParsePatient(ctx context.Context, locale domain.Locale, uc prompts.UserContext) (domain.PatientDraft, error) {
	const op = "voice.parse_patient"

	user, err := prompts.UserMessage(uc)
	if err != nil {
		return domain.PatientDraft{}, domain.WrapError(domain.KindParsing, op, "failed to build prompt", err)
	}
	reply, err := p.llm.Complete(ctx, prompts.PatientSystem(), user)
	if err != nil {
		return domain.PatientDraft{}, domain.WrapError(domain.KindParsing, op, "language model call failed", err)
	}

	var pr patientReply
	if err := decodeReply(reply, &pr); err != nil {
		p.log.Error("Language model returned invalid patient JSON",
			zap.String("payload", truncate(reply, maxLoggedPayload)),
			zap.Error(err),
		)
		return domain.PatientDraft{}, &domain.Error{
			Kind:    domain.KindParsing,
			Op:      op,
			Message: "language model returned invalid JSON",
			Cause:   err,
			Payload: reply,
		}
	}

	draft := domain.PatientDraft{
		Transcript: uc.Transcript,
		Patient: domain.PatientHint{
			FirstName: strings.TrimSpace(pr.FirstName),
			LastName:  strings.TrimSpace(pr.LastName),
			Phone:     NormalizePhone(pr.Phone),
		},
		Confidence: decodeConfidence(pr.Confidence),
	}
	var birth *civil.Date
	birth, draft.Warnings = modelDate(pr.BirthDate, locale, draft.Warnings)
	if birth != nil {
		draft.Patient.BirthDate = birth.String()
	}
	if v := strings.TrimSpace(pr.Diagnosis); v != "" {
		draft.Diagnosis = &v
	}
	if v := strings.TrimSpace(pr.Notes); v != "" {
		draft.Notes = &v
	}
	return draft, nil
}
