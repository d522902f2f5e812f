package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Locale is the spoken language of an utterance.
type Locale string

const (
	LocaleArmenian Locale = "hy"
	LocaleRussian  Locale = "ru"
	LocaleEnglish  Locale = "en"
	// LocaleAuto lets the speech provider detect the language.
	LocaleAuto Locale = "auto"
)

// ParseLocale accepts hy/ru/en/auto (and "am" as an alias of hy).
func ParseLocale(s string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hy", "am":
		return LocaleArmenian, true
	case "ru":
		return LocaleRussian, true
	case "en":
		return LocaleEnglish, true
	case "auto", "":
		return LocaleAuto, true
	}
	return "", false
}

// Mode is the screen the clinician dictated from.
type Mode string

const (
	ModeVisit     Mode = "visit"
	ModeDiagnosis Mode = "diagnosis"
	ModePayment   Mode = "payment"
	ModeMessage   Mode = "message"
	ModePatient   Mode = "patient"
)

func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVisit, ModeDiagnosis, ModePayment, ModeMessage, ModePatient:
		return m, true
	}
	return "", false
}

// Action is the classified intent of an utterance.
type Action string

const (
	ActionCreateVisit   Action = "create_visit"
	ActionUpdateVisit   Action = "update_visit"
	ActionCreatePayment Action = "create_payment"
	ActionUpdatePatient Action = "update_patient"
	ActionAddNote       Action = "add_note"
	ActionAddMedication Action = "add_medication"
	ActionUnknown       Action = "unknown"
)

// ParseAction maps a model-provided tag to an Action; anything else is unknown.
func ParseAction(s string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreateVisit, ActionUpdateVisit, ActionCreatePayment,
		ActionUpdatePatient, ActionAddNote, ActionAddMedication:
		return a
	}
	return ActionUnknown
}

// PerformedAction is the terminal state of the action router.
type PerformedAction string

const (
	PerformedCreateVisit   PerformedAction = "create_visit"
	PerformedScheduleVisit PerformedAction = "schedule_visit"
	PerformedCreatePayment PerformedAction = "create_payment"
	PerformedUpdatePatient PerformedAction = "update_patient"
	PerformedAddNote       PerformedAction = "add_note"
	PerformedAddMedication PerformedAction = "add_medication"
	PerformedNone          PerformedAction = "none"
	PerformedUnknown       PerformedAction = "unknown"
	PerformedError         PerformedAction = "error"
)

type Currency string

const (
	CurrencyAMD Currency = "AMD"
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// ParseCurrency normalizes a currency code or common symbol.
func ParseCurrency(s string) (Currency, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AMD", "֏", "DRAM":
		return CurrencyAMD, true
	case "RUB", "RUR", "₽":
		return CurrencyRUB, true
	case "USD", "$":
		return CurrencyUSD, true
	case "EUR", "€":
		return CurrencyEUR, true
	}
	return "", false
}

// AmountSource records where a normalized amount came from.
type AmountSource string

const (
	AmountSourceNone       AmountSource = "none"
	AmountSourceModel      AmountSource = "model"
	AmountSourceTranscript AmountSource = "transcript"
)

type MedicationItem struct {
	Name      string `json:"name"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// PatientHint is the patient identity the model heard in the utterance.
type PatientHint struct {
	ID        string `json:"patient_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
}

// Fields are the structured values extracted from one utterance.
type Fields struct {
	VisitDate      *civil.Date      `json:"visit_date"`
	NextVisitDate  *civil.Date      `json:"next_visit_date"`
	Diagnosis      string           `json:"diagnosis"`
	Notes          string           `json:"notes"`
	PatientStatus  string           `json:"patient_status,omitempty"`
	Amount         *int64           `json:"amount"`
	Currency       Currency         `json:"currency"`
	PaymentComment string           `json:"payment_comment,omitempty"`
	Medications    []MedicationItem `json:"medications,omitempty"`
	Patient        PatientHint      `json:"patient"`
}

func (f Fields) HasAmount() bool {
	return f.Amount != nil && *f.Amount > 0
}

func (f Fields) HasMedications() bool {
	for _, m := range f.Medications {
		if strings.TrimSpace(m.Name) != "" {
			return true
		}
	}
	return false
}

// RawIntent is the language model's reply mapped onto the closed action set.
type RawIntent struct {
	Action          Action
	Fields          Fields
	ModelConfidence float64
	Payload         string
}

// NormalizedIntent is a RawIntent after deterministic correction and scoring.
type NormalizedIntent struct {
	Action           Action
	Fields           Fields
	Confidence       float64
	ModelConfidence  float64
	AmountSource     AmountSource
	CurrencyExplicit bool
}

// PaymentEvidence reports whether an amount may be treated as money.
func (n NormalizedIntent) PaymentEvidence(mode Mode) bool {
	switch n.AmountSource {
	case AmountSourceModel:
		return true
	case AmountSourceTranscript:
		return n.CurrencyExplicit || mode == ModePayment
	}
	return false
}

// Classify picks the action implied by the populated fields.
// Priority: payment > visit date > next visit > diagnosis > notes > medications.
func Classify(f Fields, paymentEvidence bool) Action {
	switch {
	case f.HasAmount() && paymentEvidence:
		return ActionCreatePayment
	case f.VisitDate != nil:
		return ActionCreateVisit
	case f.NextVisitDate != nil:
		return ActionUpdateVisit
	case strings.TrimSpace(f.Diagnosis) != "":
		return ActionUpdatePatient
	case strings.TrimSpace(f.Notes) != "":
		return ActionAddNote
	case f.HasMedications():
		return ActionAddMedication
	}
	return ActionUnknown
}

// AudioClip is an uploaded recording; it lives for one request.
type AudioClip struct {
	Data        []byte
	ContentType string
	Filename    string
}

func (a AudioClip) Size() int { return len(a.Data) }

// Request is one dictated instruction with its context.
type Request struct {
	Clip      AudioClip
	Mode      Mode
	Locale    Locale
	Timezone  string
	Today     *civil.Date
	DoctorID  string
	PatientID string
	// PatientName is optional context substituted into the prompt.
	PatientName string
}

// Structured is the draft payload shown to the clinician.
type Structured struct {
	VisitDate     *civil.Date      `json:"visit_date"`
	NextVisitDate *civil.Date      `json:"next_visit_date"`
	Diagnosis     *string          `json:"diagnosis"`
	Notes         *string          `json:"notes"`
	Amount        *int64           `json:"amount"`
	Currency      *Currency        `json:"currency"`
	Medications   []MedicationItem `json:"medications,omitempty"`
	Patient       *PatientHint     `json:"patient,omitempty"`
}

// StructuredFrom renders fields as the draft payload, empty strings as null.
func StructuredFrom(f Fields) Structured {
	s := Structured{
		VisitDate:     f.VisitDate,
		NextVisitDate: f.NextVisitDate,
		Amount:        f.Amount,
		Medications:   f.Medications,
	}
	if v := strings.TrimSpace(f.Diagnosis); v != "" {
		s.Diagnosis = &v
	}
	if v := strings.TrimSpace(f.Notes); v != "" {
		s.Notes = &v
	}
	if f.Currency != "" {
		c := f.Currency
		s.Currency = &c
	}
	if f.Patient != (PatientHint{}) {
		p := f.Patient
		s.Patient = &p
	}
	return s
}

// Draft is the output of the parse flow.
type Draft struct {
	Transcript string     `json:"transcript"`
	Structured Structured `json:"structured"`
	Warnings   []string   `json:"warnings"`
}

// ActionResult is the uniform envelope returned by the action router.
type ActionResult struct {
	PerformedAction   PerformedAction `json:"performed_action"`
	Updated           map[string]any  `json:"updated"`
	Warnings          []string        `json:"warnings"`
	NeedsConfirmation bool            `json:"needs_confirmation"`
}

// AutoResult is the output of the auto-commit flow.
type AutoResult struct {
	Draft
	Action            Action       `json:"action"`
	Confidence        float64      `json:"confidence"`
	ModelConfidence   float64      `json:"model_confidence"`
	Result            ActionResult `json:"result"`
	NeedsConfirmation bool         `json:"needs_confirmation"`
}

// PatientDraft is the output of the patient-intake flow. It is never written.
type PatientDraft struct {
	Transcript string      `json:"transcript"`
	Patient    PatientHint `json:"patient"`
	Diagnosis  *string     `json:"diagnosis"`
	Notes      *string     `json:"notes"`
	Confidence float64     `json:"confidence"`
	Warnings   []string    `json:"warnings"`
}
