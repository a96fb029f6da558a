package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

// openTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func openTestDB(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.AutoMigrate())
	require.NoError(t, repo.Seed(context.Background()))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_SeedIsIdempotent(t *testing.T) {
	repo := openTestDB(t)
	require.NoError(t, repo.Seed(context.Background()))

	n, err := repo.Users().CountByRole(context.Background(), models.RolePatient)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(3))
}

func TestRepository_Queries(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	user, err := repo.Users().GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "patient-1", user.ID)

	_, err = repo.Users().GetByID(ctx, "missing-user")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	latest, err := repo.Assessments().LatestByPatients(ctx, []string{"patient-1", "patient-3"})
	require.NoError(t, err)
	require.Contains(t, latest, "patient-1")
	assert.Len(t, latest["patient-1"].RiskScores, 3)

	kind := models.EventTypeAssessment
	evts, err := repo.Clinical().ListHealthEvents(ctx, "patient-1", repositories.HealthEventFilters{Type: &kind})
	require.NoError(t, err)
	assert.NotEmpty(t, evts)

	err = repo.Clinical().UpdateMedication(ctx, &models.Medication{ID: "med-missing", PatientID: "patient-1", Name: "x", Status: models.MedicationActive})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
