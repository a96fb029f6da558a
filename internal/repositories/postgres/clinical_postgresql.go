package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type ClinicalPostgreSQL struct {
	db *gorm.DB
}

func NewClinicalPostgreSQL(db *gorm.DB) *ClinicalPostgreSQL {
	return &ClinicalPostgreSQL{db: db}
}

func (c *ClinicalPostgreSQL) ListHealthEvents(ctx context.Context, patientID string, filters repositories.HealthEventFilters) ([]*models.HealthEvent, error) {
	query := c.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	var events []*models.HealthEvent
	if err := query.Order("date DESC, id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (c *ClinicalPostgreSQL) CreateHealthEvent(ctx context.Context, event *models.HealthEvent) error {
	if err := c.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create health event: %w", err)
	}
	return nil
}

func (c *ClinicalPostgreSQL) ListNotes(ctx context.Context, patientID string) ([]*models.ClinicalNote, error) {
	var notes []*models.ClinicalNote
	err := c.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *ClinicalPostgreSQL) CreateNote(ctx context.Context, note *models.ClinicalNote) error {
	if err := c.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create clinical note: %w", err)
	}
	return nil
}

func (c *ClinicalPostgreSQL) ListMedications(ctx context.Context, patientID string) ([]*models.Medication, error) {
	var medications []*models.Medication
	err := c.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("start_date DESC, id ASC").
		Find(&medications).Error
	if err != nil {
		return nil, err
	}
	return medications, nil
}

func (c *ClinicalPostgreSQL) GetMedication(ctx context.Context, id string) (*models.Medication, error) {
	var medication models.Medication
	if err := c.db.WithContext(ctx).First(&medication, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &medication, nil
}

func (c *ClinicalPostgreSQL) CreateMedication(ctx context.Context, medication *models.Medication) error {
	if err := c.db.WithContext(ctx).Create(medication).Error; err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (c *ClinicalPostgreSQL) UpdateMedication(ctx context.Context, medication *models.Medication) error {
	result := c.db.WithContext(ctx).Model(medication).Select("*").Omit("created_at").Updates(medication)
	if result.Error != nil {
		return fmt.Errorf("failed to update medication: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (c *ClinicalPostgreSQL) ListAppointments(ctx context.Context, patientID string) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := c.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (c *ClinicalPostgreSQL) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	if err := c.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}
