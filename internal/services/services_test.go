package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/repositories/memory"
	"github.com/neurosense/assessment-service/internal/validator"
)

var fixedNow = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	cache     *cache.MemoryCache
	validator *validator.Validator
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		repo:      memory.NewSeeded(),
		publisher: events.NewMockEventPublisher(logger),
		cache:     cache.NewMemoryCache(),
		validator: validator.New(validator.NewFormValidator(questionnaire.Default())),
		logger:    logger,
	}
}

func (e *testEnv) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.repo.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) patientService() *patientService {
	s := NewPatientService(e.repo, e.cache, e.logger, e.validator).(*patientService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func (e *testEnv) assessmentService() *assessmentService {
	s := NewAssessmentService(e.repo, e.publisher, e.cache, e.logger, e.validator).(*assessmentService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func (e *testEnv) clinicalService() *clinicalService {
	s := NewClinicalService(e.repo, e.publisher, e.logger, e.validator).(*clinicalService)
	s.now = func() time.Time { return fixedNow }
	return s
}
