package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Patient statuses accepted by update_patient.
const (
	PatientStatusInProgress = "in_progress"
	PatientStatusCompleted  = "completed"
)

const VisitStatusScheduled = "scheduled"

type Patient struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	DoctorID  string     `json:"doctor_id" gorm:"index"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone,omitempty"`
	Diagnosis string     `json:"diagnosis,omitempty"`
	Status    string     `json:"status,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Visit struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	DoctorID      string     `json:"doctor_id" gorm:"index"`
	PatientID     string     `json:"patient_id" gorm:"index"`
	VisitDate     time.Time  `json:"visit_date"`
	NextVisitDate *time.Time `json:"next_visit_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PatientPayment is a payment taken from a patient at the clinic.
type PatientPayment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	DoctorID  string    `json:"doctor_id" gorm:"index"`
	PatientID string    `json:"patient_id" gorm:"index"`
	Amount    int64     `json:"amount"`
	Currency  Currency  `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PatientMedication struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	DoctorID  string    `json:"doctor_id" gorm:"index"`
	PatientID string    `json:"patient_id" gorm:"index"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PatientUpdate carries the patient fields to change; nil means untouched.
type PatientUpdate struct {
	Diagnosis *string
	Status    *string
	Notes     *string
}

// VoiceCommandLog is the audit record of one applied voice command.
type VoiceCommandLog struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	DoctorID        string          `json:"doctor_id" gorm:"index"`
	PatientID       string          `json:"patient_id" gorm:"index"`
	Locale          Locale          `json:"locale"`
	Mode            Mode            `json:"mode"`
	Transcript      string          `json:"transcript"`
	Action          Action          `json:"action"`
	PerformedAction PerformedAction `json:"performed_action"`
	Confidence      float64         `json:"confidence"`
	RecordID        string          `json:"record_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DateToTime converts a calendar date to midnight UTC.
func DateToTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}
