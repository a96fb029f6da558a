package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neurosense/assessment-service/internal/fixtures"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type Repository struct {
	db          *gorm.DB
	users       *UserPostgreSQL
	assessments *AssessmentPostgreSQL
	clinical    *ClinicalPostgreSQL
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		users:       NewUserPostgreSQL(db),
		assessments: NewAssessmentPostgreSQL(db),
		clinical:    NewClinicalPostgreSQL(db),
	}
}

func (r *Repository) Users() repositories.UserRepository             { return r.users }
func (r *Repository) Assessments() repositories.AssessmentRepository { return r.assessments }
func (r *Repository) Clinical() repositories.ClinicalRepository      { return r.clinical }

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.Assessment{},
		&models.HealthEvent{},
		&models.ClinicalNote{},
		&models.Medication{},
		&models.Appointment{},
	)
}

// Seed inserts the demo fixtures. Existing rows are left untouched so the
// call is safe on every start.
func (r *Repository) Seed(ctx context.Context) error {
	data := fixtures.Load()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rows := range []interface{}{
			&data.Users,
			&data.Assessments,
			&data.HealthEvents,
			&data.Notes,
			&data.Medications,
			&data.Appointments,
		} {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
		}
		return nil
	})
}

// notFound maps gorm's missing-record error onto the repository sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}
