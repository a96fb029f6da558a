package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/neurosense/assessment-service/internal/models"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) *AssessmentPostgreSQL {
	return &AssessmentPostgreSQL{db: db}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := a.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.db.WithContext(ctx).First(&assessment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) ListByPatient(ctx context.Context, patientID string) ([]*models.Assessment, error) {
	var assessments []*models.Assessment
	err := a.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC, id DESC").
		Find(&assessments).Error
	if err != nil {
		return nil, err
	}
	return assessments, nil
}

// LatestByPatients uses DISTINCT ON to fetch one row per patient.
func (a *AssessmentPostgreSQL) LatestByPatients(ctx context.Context, patientIDs []string) (map[string]*models.Assessment, error) {
	latest := make(map[string]*models.Assessment, len(patientIDs))
	if len(patientIDs) == 0 {
		return latest, nil
	}

	var assessments []*models.Assessment
	err := a.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (patient_id) * FROM assessments
			WHERE patient_id IN ? ORDER BY patient_id, date DESC, id DESC`, patientIDs).
		Scan(&assessments).Error
	if err != nil {
		return nil, err
	}
	for _, assessment := range assessments {
		latest[assessment.PatientID] = assessment
	}
	return latest, nil
}

func (a *AssessmentPostgreSQL) CountByStatus(ctx context.Context, status models.AssessmentStatus) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.Assessment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
