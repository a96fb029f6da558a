package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
)

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// requireDoctor fails with a PermissionError unless caller is a doctor.
func requireDoctor(caller *models.User, resource, resourceID, action string) error {
	if caller == nil {
		return ErrUnauthorized
	}
	if !caller.IsDoctor() {
		return NewPermissionError(caller.ID, resourceID, resource, action, "doctor role required")
	}
	return nil
}

// canAccessPatient reports whether caller may see patientID's records.
// Doctors see every patient; patients see only themselves.
func canAccessPatient(caller *models.User, patientID string) bool {
	if caller == nil {
		return false
	}
	return caller.IsDoctor() || caller.ID == patientID
}

// loadPatient checks access and fetches the patient record.
func loadPatient(ctx context.Context, repo repositories.Repository, caller *models.User, patientID, action string) (*models.User, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if !canAccessPatient(caller, patientID) {
		return nil, NewPermissionError(caller.ID, patientID, "patient", action, "not the patient or their doctor")
	}

	patient, err := repo.Users().GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}
