package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/fixtures"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/validator"
)

const defaultInterpretation = "Moderate risk profile with manageable factors. " +
	"Lifestyle modifications and regular monitoring recommended."

var defaultRecommendations = []string{
	"Continue regular physical activity",
	"Maintain social engagement",
	"Annual cognitive screening",
	"Heart-healthy diet",
}

type assessmentService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewAssessmentService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *validator.Validator,
) AssessmentService {
	return &assessmentService{
		repo:      repo,
		publisher: publisher,
		cache:     cacheService,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment", Component: "service"}),
		validator: validator,
		now:       time.Now,
	}
}

func (s *assessmentService) ListByPatient(ctx context.Context, caller *models.User, patientID string) ([]*models.Assessment, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "read"); err != nil {
		return nil, err
	}

	assessments, err := s.repo.Assessments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

func (s *assessmentService) Get(ctx context.Context, caller *models.User, id string) (*models.Assessment, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}

	assessment, err := s.repo.Assessments().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if !canAccessPatient(caller, assessment.PatientID) {
		return nil, NewPermissionError(caller.ID, id, "assessment", "read", "not the patient or their doctor")
	}
	return assessment, nil
}

// Submit stores a completed assessment. Scores are not inferred from the
// answers: the patient's previous profile is carried forward, or the default
// moderate profile when there is none.
func (s *assessmentService) Submit(ctx context.Context, caller *models.User, patientID string, state map[string]any) (*models.Assessment, error) {
	op := s.logger.WithOperation(ctx, "submit_assessment", callerID(caller))

	assessment, err := s.submit(ctx, caller, patientID, state)
	resourceID := ""
	if assessment != nil {
		resourceID = assessment.ID
	}
	op.LogResult(resourceID, "assessment", err)
	if err == nil {
		op.LogAudit(AuditEventCreate, assessment.ID, "assessment", nil, assessment.RiskLevels())
	}
	return assessment, err
}

func (s *assessmentService) submit(ctx context.Context, caller *models.User, patientID string, state map[string]any) (*models.Assessment, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "submit"); err != nil {
		return nil, err
	}
	if _, err := s.validator.ValidateFormState(state); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	assessment := &models.Assessment{
		ID:        newID("assessment"),
		PatientID: patientID,
		Date:      now,
		Status:    models.StatusCompleted,
		FormState: datatypes.JSONMap(state),
	}

	previous, err := s.repo.Assessments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous assessments: %w", err)
	}
	if len(previous) > 0 && len(previous[0].RiskScores) > 0 {
		carryForward(assessment, previous[0], now)
	} else {
		assessment.RiskScores = defaultRiskScores(now)
		assessment.AIInterpretation = defaultInterpretation
		assessment.Recommendations = append([]string(nil), defaultRecommendations...)
	}

	if err := s.repo.Assessments().Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	answered := models.AnsweredCount(state)
	s.recordHealthEvent(ctx, assessment, answered)
	s.publishSubmitted(ctx, assessment, answered)

	if err := s.cache.DeletePattern(ctx, rosterCachePattern); err != nil {
		s.logger.Logger().Warn("Failed to invalidate roster cache", "error", err)
	}
	return assessment, nil
}

func carryForward(dst, prev *models.Assessment, now time.Time) {
	dst.RiskScores = make(datatypes.JSONSlice[models.RiskScore], len(prev.RiskScores))
	for i, r := range prev.RiskScores {
		r.LastUpdated = now
		dst.RiskScores[i] = r
	}
	dst.AIInterpretation = prev.AIInterpretation
	dst.Recommendations = append(datatypes.JSONSlice[string](nil), prev.Recommendations...)
	dst.TopRiskFactors = append(datatypes.JSONSlice[models.RiskFactor](nil), prev.TopRiskFactors...)
}

func defaultRiskScores(now time.Time) []models.RiskScore {
	score := func(d models.Disease, value, confidence int) models.RiskScore {
		return models.RiskScore{Disease: d, Score: value, Confidence: confidence, Level: fixtures.LevelFor(value), LastUpdated: now}
	}
	return []models.RiskScore{
		score(models.DiseaseAlzheimers, 45, 80),
		score(models.DiseaseParkinsons, 25, 75),
		score(models.DiseaseDementia, 38, 77),
	}
}

func (s *assessmentService) recordHealthEvent(ctx context.Context, a *models.Assessment, answered int) {
	severity := a.OverallRisk()
	event := &models.HealthEvent{
		ID:          newID("event"),
		PatientID:   a.PatientID,
		Date:        a.Date,
		Type:        models.EventTypeAssessment,
		Title:       "Neurological Risk Assessment Completed",
		Description: fmt.Sprintf("Assessment submitted with %d answered questions", answered),
		Severity:    &severity,
	}
	if err := s.repo.Clinical().CreateHealthEvent(ctx, event); err != nil {
		s.logger.Logger().Error("Failed to record health event", "assessment_id", a.ID, "error", err)
	}
}

func (s *assessmentService) publishSubmitted(ctx context.Context, a *models.Assessment, answered int) {
	event := events.NewAssessmentSubmittedEvent(events.AssessmentSubmittedEvent{
		AssessmentID: a.ID,
		PatientID:    a.PatientID,
		SubmittedAt:  a.Date,
		RiskLevels:   a.RiskLevels(),
		Answered:     answered,
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Logger().Error("Failed to publish assessment submitted event", "assessment_id", a.ID, "error", err)
	}
}

func callerID(caller *models.User) string {
	if caller == nil {
		return ""
	}
	return caller.ID
}
