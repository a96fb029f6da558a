package repositories

import (
	"context"
	"errors"

	"github.com/neurosense/assessment-service/internal/models"
)

// ErrNotFound is returned by every implementation when a record is missing.
var ErrNotFound = errors.New("record not found")

// ===== FILTER STRUCTS =====

type PatientFilters struct {
	Search   string  `json:"search"`    // first name, last name or email
	DoctorID *string `json:"doctor_id"` // assigned doctor
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

type HealthEventFilters struct {
	Type *models.HealthEventType `json:"type"`
}

// ===== REPOSITORIES =====

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ListPatients returns patients ordered by ID.
	ListPatients(ctx context.Context, filters PatientFilters) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id string) (*models.Assessment, error)

	// ListByPatient returns the patient's assessments, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*models.Assessment, error)
	// LatestByPatients maps each patient ID to its newest assessment.
	// Patients without assessments are absent from the map.
	LatestByPatients(ctx context.Context, patientIDs []string) (map[string]*models.Assessment, error)
	CountByStatus(ctx context.Context, status models.AssessmentStatus) (int64, error)
}

// ClinicalRepository stores the records doctors and the timeline work with.
// Lists are newest first.
type ClinicalRepository interface {
	ListHealthEvents(ctx context.Context, patientID string, filters HealthEventFilters) ([]*models.HealthEvent, error)
	CreateHealthEvent(ctx context.Context, event *models.HealthEvent) error

	ListNotes(ctx context.Context, patientID string) ([]*models.ClinicalNote, error)
	CreateNote(ctx context.Context, note *models.ClinicalNote) error

	ListMedications(ctx context.Context, patientID string) ([]*models.Medication, error)
	GetMedication(ctx context.Context, id string) (*models.Medication, error)
	CreateMedication(ctx context.Context, medication *models.Medication) error
	UpdateMedication(ctx context.Context, medication *models.Medication) error

	ListAppointments(ctx context.Context, patientID string) ([]*models.Appointment, error)
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
}

// Repository aggregates the per-entity repositories of one store.
type Repository interface {
	Users() UserRepository
	Assessments() AssessmentRepository
	Clinical() ClinicalRepository
	Close() error
}
