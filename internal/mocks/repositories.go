package mocks

import (
	"context"
	"sync"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// MockClinicStore is a mock implementation of ports.ClinicStore. Without a
// Func override it serves Patients and records every write.
type MockClinicStore struct {
	GetPatientFunc        func(ctx context.Context, patientID string) (*domain.Patient, error)
	CreateVisitFunc       func(ctx context.Context, visit *domain.Visit) error
	CreatePaymentFunc     func(ctx context.Context, payment *domain.PatientPayment) error
	UpdatePatientFunc     func(ctx context.Context, doctorID, patientID string, update domain.PatientUpdate) error
	CreateMedicationsFunc func(ctx context.Context, items []domain.PatientMedication) error
	PingFunc              func(ctx context.Context) error

	mu          sync.Mutex
	Patients    map[string]*domain.Patient
	Visits      []domain.Visit
	Payments    []domain.PatientPayment
	Updates     []domain.PatientUpdate
	Medications []domain.PatientMedication
}

func NewMockClinicStore(patients ...domain.Patient) *MockClinicStore {
	m := &MockClinicStore{Patients: make(map[string]*domain.Patient)}
	for i := range patients {
		p := patients[i]
		m.Patients[p.ID] = &p
	}
	return m
}

func (m *MockClinicStore) GetPatient(ctx context.Context, patientID string) (*domain.Patient, error) {
	if m.GetPatientFunc != nil {
		return m.GetPatientFunc(ctx, patientID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Patients[patientID]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockClinicStore) CreateVisit(ctx context.Context, visit *domain.Visit) error {
	if m.CreateVisitFunc != nil {
		return m.CreateVisitFunc(ctx, visit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Visits = append(m.Visits, *visit)
	return nil
}

func (m *MockClinicStore) CreatePayment(ctx context.Context, payment *domain.PatientPayment) error {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payments = append(m.Payments, *payment)
	return nil
}

func (m *MockClinicStore) UpdatePatient(ctx context.Context, doctorID, patientID string, update domain.PatientUpdate) error {
	if m.UpdatePatientFunc != nil {
		return m.UpdatePatientFunc(ctx, doctorID, patientID, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, update)
	if p, ok := m.Patients[patientID]; ok {
		if update.Diagnosis != nil {
			p.Diagnosis = *update.Diagnosis
		}
		if update.Status != nil {
			p.Status = *update.Status
		}
		if update.Notes != nil {
			p.Notes = *update.Notes
		}
	}
	return nil
}

func (m *MockClinicStore) CreateMedications(ctx context.Context, items []domain.PatientMedication) error {
	if m.CreateMedicationsFunc != nil {
		return m.CreateMedicationsFunc(ctx, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Medications = append(m.Medications, items...)
	return nil
}

func (m *MockClinicStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Writes counts every recorded write.
func (m *MockClinicStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Visits) + len(m.Payments) + len(m.Updates) + len(m.Medications)
}

// MockAuditRepository is a mock implementation of ports.AuditRepository
type MockAuditRepository struct {
	SaveFunc func(ctx context.Context, entry *domain.VoiceCommandLog) error

	mu      sync.Mutex
	Entries []domain.VoiceCommandLog
}

func (m *MockAuditRepository) SaveVoiceCommandLog(ctx context.Context, entry *domain.VoiceCommandLog) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, *entry)
	return nil
}
