package memory

import (
	"context"
	"fmt"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

type assessmentRepository struct {
	s *store
}

func newestAssessment(a, b *models.Assessment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}

func (r *assessmentRepository) Create(_ context.Context, assessment *models.Assessment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.assessments[assessment.ID]; exists {
		return fmt.Errorf("assessment %s already exists", assessment.ID)
	}
	r.s.assessments[assessment.ID] = *assessment
	return nil
}

func (r *assessmentRepository) GetByID(_ context.Context, id string) (*models.Assessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.assessments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *assessmentRepository) ListByPatient(_ context.Context, patientID string) ([]*models.Assessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return collect(r.s.assessments,
		func(a *models.Assessment) bool { return a.PatientID == patientID },
		newestAssessment,
	), nil
}

func (r *assessmentRepository) LatestByPatients(_ context.Context, patientIDs []string) (map[string]*models.Assessment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[string]bool, len(patientIDs))
	for _, id := range patientIDs {
		wanted[id] = true
	}

	latest := make(map[string]*models.Assessment)
	for _, a := range r.s.assessments {
		if !wanted[a.PatientID] {
			continue
		}
		if cur, ok := latest[a.PatientID]; !ok || newestAssessment(&a, cur) {
			a := a
			latest[a.PatientID] = &a
		}
	}
	return latest, nil
}

func (r *assessmentRepository) CountByStatus(_ context.Context, status models.AssessmentStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, a := range r.s.assessments {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}
