package ports

import (
	"context"
	"errors"
	"time"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// Transcriber turns recorded speech into text.
type Transcriber interface {
	// Transcribe returns the raw provider text; locale auto lets the provider detect.
	Transcribe(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error)
}

// LanguageModel completes a system/user prompt pair with JSON-ish text.
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClinicStore is the clinic data store the voice pipeline writes to.
// GetPatient returns domain.ErrPatientNotFound when the row does not exist.
type ClinicStore interface {
	GetPatient(ctx context.Context, patientID string) (*domain.Patient, error)
	CreateVisit(ctx context.Context, visit *domain.Visit) error
	CreatePayment(ctx context.Context, payment *domain.PatientPayment) error
	UpdatePatient(ctx context.Context, doctorID, patientID string, update domain.PatientUpdate) error
	// CreateMedications stores all items atomically.
	CreateMedications(ctx context.Context, items []domain.PatientMedication) error
	Ping(ctx context.Context) error
}

type AuditRepository interface {
	SaveVoiceCommandLog(ctx context.Context, entry *domain.VoiceCommandLog) error
}

// ErrCacheMiss is returned by Cache.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// TokenVerifier resolves a bearer token to the calling doctor.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (doctorID string, err error)
}
