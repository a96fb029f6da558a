package memory

import (
	"context"
	"fmt"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type clinicalRepository struct {
	s *store
}

func (r *clinicalRepository) ListHealthEvents(_ context.Context, patientID string, filters repositories.HealthEventFilters) ([]*models.HealthEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return collect(r.s.events,
		func(e *models.HealthEvent) bool {
			return e.PatientID == patientID && (filters.Type == nil || e.Type == *filters.Type)
		},
		func(a, b *models.HealthEvent) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.ID < b.ID
		},
	), nil
}

func (r *clinicalRepository) CreateHealthEvent(_ context.Context, event *models.HealthEvent) error {
	return insert(r.s, r.s.events, event.ID, *event)
}

func (r *clinicalRepository) ListNotes(_ context.Context, patientID string) ([]*models.ClinicalNote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return collect(r.s.notes,
		func(n *models.ClinicalNote) bool { return n.PatientID == patientID },
		func(a, b *models.ClinicalNote) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.ID > b.ID
		},
	), nil
}

func (r *clinicalRepository) CreateNote(_ context.Context, note *models.ClinicalNote) error {
	return insert(r.s, r.s.notes, note.ID, *note)
}

func (r *clinicalRepository) ListMedications(_ context.Context, patientID string) ([]*models.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return collect(r.s.medications,
		func(m *models.Medication) bool { return m.PatientID == patientID },
		func(a, b *models.Medication) bool {
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.After(b.StartDate)
			}
			return a.ID < b.ID
		},
	), nil
}

func (r *clinicalRepository) GetMedication(_ context.Context, id string) (*models.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.medications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (r *clinicalRepository) CreateMedication(_ context.Context, medication *models.Medication) error {
	return insert(r.s, r.s.medications, medication.ID, *medication)
}

func (r *clinicalRepository) UpdateMedication(_ context.Context, medication *models.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.medications[medication.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.medications[medication.ID] = *medication
	return nil
}

func (r *clinicalRepository) ListAppointments(_ context.Context, patientID string) ([]*models.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return collect(r.s.appointments,
		func(a *models.Appointment) bool { return a.PatientID == patientID },
		func(a, b *models.Appointment) bool { return a.Date.After(b.Date) },
	), nil
}

func (r *clinicalRepository) CreateAppointment(_ context.Context, appointment *models.Appointment) error {
	return insert(r.s, r.s.appointments, appointment.ID, *appointment)
}

func insert[T any](s *store, m map[string]T, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := m[id]; exists {
		return fmt.Errorf("record %s already exists", id)
	}
	m[id] = v
	return nil
}
