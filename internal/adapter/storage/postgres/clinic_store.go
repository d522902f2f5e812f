package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
)

// ClinicStore implements ports.ClinicStore and ports.AuditRepository.
type ClinicStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewClinicStore(db *gorm.DB, log *zap.Logger) *ClinicStore {
	return &ClinicStore{db: db, log: log}
}

func observe(start time.Time) {
	telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
}

func (s *ClinicStore) GetPatient(ctx context.Context, patientID string) (*domain.Patient, error) {
	defer observe(time.Now())

	var p domain.Patient
	err := s.db.WithContext(ctx).First(&p, "id = ?", patientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to load patient %s: %w", patientID, err)
	}
	return &p, nil
}

func (s *ClinicStore) CreateVisit(ctx context.Context, visit *domain.Visit) error {
	defer observe(time.Now())
	if err := s.db.WithContext(ctx).Create(visit).Error; err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (s *ClinicStore) CreatePayment(ctx context.Context, payment *domain.PatientPayment) error {
	defer observe(time.Now())
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// UpdatePatient changes only the non-nil fields of update, scoped to the
// owning doctor.
func (s *ClinicStore) UpdatePatient(ctx context.Context, doctorID, patientID string, update domain.PatientUpdate) error {
	defer observe(time.Now())

	values := map[string]interface{}{}
	if update.Diagnosis != nil {
		values["diagnosis"] = *update.Diagnosis
	}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.Notes != nil {
		values["notes"] = *update.Notes
	}
	if len(values) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).
		Model(&domain.Patient{}).
		Where("id = ? AND doctor_id = ?", patientID, doctorID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update patient %s: %w", patientID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

// CreateMedications inserts all items in one transaction.
func (s *ClinicStore) CreateMedications(ctx context.Context, items []domain.PatientMedication) error {
	defer observe(time.Now())
	if len(items) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create medications: %w", err)
	}
	return nil
}

func (s *ClinicStore) SaveVoiceCommandLog(ctx context.Context, entry *domain.VoiceCommandLog) error {
	defer observe(time.Now())
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save voice command log: %w", err)
	}
	return nil
}

func (s *ClinicStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
