package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/validator"
)

const (
	rosterCacheKey     = "roster:all"
	rosterCachePattern = "roster:*"
	rosterCacheTTL     = 5 * time.Minute

	recentEventsLimit = 3
)

type patientService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewPatientService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *validator.Validator) PatientService {
	return &patientService{
		repo:      repo,
		cache:     cacheService,
		logger:    NewServiceLogger(logger, LogConfig{Service: "patient", Component: "service"}),
		validator: validator,
		now:       time.Now,
	}
}

// ===== ROSTER =====

func (s *patientService) ListPatients(ctx context.Context, caller *models.User, req *PatientListRequest) ([]*PatientSummary, error) {
	if err := requireDoctor(caller, "patient", "", "list"); err != nil {
		return nil, err
	}
	if req == nil {
		req = &PatientListRequest{}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	return filterRoster(roster, req), nil
}

func (s *patientService) DoctorDashboard(ctx context.Context, caller *models.User, req *PatientListRequest) (*DoctorDashboard, error) {
	patients, err := s.ListPatients(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.Assessments().CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending assessments: %w", err)
	}

	dashboard := &DoctorDashboard{
		TotalPatients:      len(roster),
		PendingAssessments: pending,
		Patients:           patients,
	}
	for _, p := range roster {
		if p.RiskLevel == models.RiskHigh {
			dashboard.HighRiskPatients++
		}
	}
	return dashboard, nil
}

// roster returns every patient with their latest assessment, served from
// cache when possible.
func (s *patientService) roster(ctx context.Context) ([]*PatientSummary, error) {
	var cached []*PatientSummary
	err := s.cache.Get(ctx, rosterCacheKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Logger().Warn("Roster cache read failed", "error", err)
	}

	patients, err := s.repo.Users().ListPatients(ctx, repositories.PatientFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	ids := make([]string, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	latest, err := s.repo.Assessments().LatestByPatients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest assessments: %w", err)
	}

	roster := make([]*PatientSummary, len(patients))
	for i, p := range patients {
		roster[i] = summarize(p, latest[p.ID])
	}

	if err := s.cache.Set(ctx, rosterCacheKey, roster, rosterCacheTTL); err != nil {
		s.logger.Logger().Warn("Roster cache write failed", "error", err)
	}
	return roster, nil
}

func summarize(patient *models.User, latest *models.Assessment) *PatientSummary {
	return &PatientSummary{
		Patient:          patient,
		RiskLevel:        riskOf(latest),
		LatestAssessment: latest,
	}
}

func riskOf(a *models.Assessment) models.RiskLevel {
	if a == nil {
		return models.RiskNone
	}
	return a.OverallRisk()
}

func filterRoster(roster []*PatientSummary, req *PatientListRequest) []*PatientSummary {
	out := make([]*PatientSummary, 0, len(roster))
	for _, p := range roster {
		if !p.Patient.MatchesSearch(req.Search) {
			continue
		}
		if req.Risk != "" && req.Risk != "all" && p.RiskLevel != req.Risk {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ===== SINGLE PATIENT =====

func (s *patientService) GetPatient(ctx context.Context, caller *models.User, patientID string) (*models.User, error) {
	return loadPatient(ctx, s.repo, caller, patientID, "read")
}

func (s *patientService) Dashboard(ctx context.Context, caller *models.User, patientID string) (*PatientDashboard, error) {
	patient, err := loadPatient(ctx, s.repo, caller, patientID, "read")
	if err != nil {
		return nil, err
	}

	assessments, err := s.repo.Assessments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	medications, err := s.repo.Clinical().ListMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	events, err := s.repo.Clinical().ListHealthEvents(ctx, patientID, repositories.HealthEventFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list health events: %w", err)
	}
	appointments, err := s.repo.Clinical().ListAppointments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	dashboard := &PatientDashboard{
		Patient:              patient,
		RiskLevel:            models.RiskNone,
		AssessmentCount:      len(assessments),
		RecentEvents:         events[:min(len(events), recentEventsLimit)],
		UpcomingAppointments: upcoming(appointments, s.now()),
	}
	if len(assessments) > 0 {
		dashboard.LatestAssessment = assessments[0]
		dashboard.RiskLevel = assessments[0].OverallRisk()
	}
	for _, m := range medications {
		if m.Status == models.MedicationActive {
			dashboard.ActiveMedications++
		}
	}
	return dashboard, nil
}

// upcoming keeps scheduled appointments at or after now, soonest first.
func upcoming(appointments []*models.Appointment, now time.Time) []*models.Appointment {
	out := make([]*models.Appointment, 0)
	for i := len(appointments) - 1; i >= 0; i-- {
		a := appointments[i]
		if a.Status == models.AppointmentScheduled && !a.Date.Before(now) {
			out = append(out, a)
		}
	}
	return out
}

func (s *patientService) Timeline(ctx context.Context, caller *models.User, patientID string, eventType *models.HealthEventType) ([]*models.HealthEvent, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "read"); err != nil {
		return nil, err
	}

	events, err := s.repo.Clinical().ListHealthEvents(ctx, patientID, repositories.HealthEventFilters{Type: eventType})
	if err != nil {
		return nil, fmt.Errorf("failed to list health events: %w", err)
	}
	return events, nil
}
