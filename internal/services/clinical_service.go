package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/validator"
)

const defaultMMSEScore = 24

type clinicalService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewClinicalService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ClinicalService {
	return &clinicalService{
		repo:      repo,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "clinical", Component: "service"}),
		validator: validator,
		now:       time.Now,
	}
}

// ===== NOTES =====

func (s *clinicalService) ListNotes(ctx context.Context, caller *models.User, patientID string) ([]*models.ClinicalNote, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "read"); err != nil {
		return nil, err
	}
	notes, err := s.repo.Clinical().ListNotes(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (s *clinicalService) AddNote(ctx context.Context, caller *models.User, req *AddNoteRequest) (*models.ClinicalNote, error) {
	op := s.logger.WithOperation(ctx, "add_note", callerID(caller))

	note, err := s.addNote(ctx, caller, req)
	op.LogResult(req.PatientID, "clinical_note", err)
	if err == nil {
		op.LogAudit(AuditEventCreate, note.ID, "clinical_note", nil, note.NoteType)
	}
	return note, err
}

func (s *clinicalService) addNote(ctx context.Context, caller *models.User, req *AddNoteRequest) (*models.ClinicalNote, error) {
	if err := requireDoctor(caller, "clinical_note", req.PatientID, "create"); err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := loadPatient(ctx, s.repo, caller, req.PatientID, "create"); err != nil {
		return nil, err
	}

	noteType := req.NoteType
	if noteType == "" {
		noteType = models.NoteGeneral
	}
	now := s.now().UTC()
	note := &models.ClinicalNote{
		ID:         newID("note"),
		PatientID:  req.PatientID,
		DoctorID:   caller.ID,
		DoctorName: caller.FullName(),
		Date:       now,
		Content:    req.Content,
		NoteType:   noteType,
	}
	if err := s.repo.Clinical().CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.recordHealthEvent(ctx, &models.HealthEvent{
		PatientID:   req.PatientID,
		Date:        now,
		Type:        models.EventTypeNote,
		Title:       "Doctor's Note Added",
		Description: summarizeNote(note.Content),
	})
	s.publish(ctx, events.NewNoteAddedEvent(events.NoteAddedEvent{
		NoteID:    note.ID,
		PatientID: note.PatientID,
		DoctorID:  note.DoctorID,
		NoteType:  string(note.NoteType),
	}))
	return note, nil
}

func summarizeNote(content string) string {
	const limit = 120
	if r := []rune(content); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return content
}

// ===== MEDICATIONS =====

func (s *clinicalService) ListMedications(ctx context.Context, caller *models.User, patientID string) ([]*models.Medication, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "read"); err != nil {
		return nil, err
	}
	medications, err := s.repo.Clinical().ListMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return medications, nil
}

func (s *clinicalService) AddMedication(ctx context.Context, caller *models.User, req *AddMedicationRequest) (*models.Medication, error) {
	op := s.logger.WithOperation(ctx, "add_medication", callerID(caller))

	medication, err := s.addMedication(ctx, caller, req)
	op.LogResult(req.PatientID, "medication", err)
	if err == nil {
		op.LogAudit(AuditEventCreate, medication.ID, "medication", nil, medication.Name)
	}
	return medication, err
}

func (s *clinicalService) addMedication(ctx context.Context, caller *models.User, req *AddMedicationRequest) (*models.Medication, error) {
	if err := requireDoctor(caller, "medication", req.PatientID, "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := loadPatient(ctx, s.repo, caller, req.PatientID, "create"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	prescriber := caller.FullName()
	medication := &models.Medication{
		ID:           newID("med"),
		PatientID:    req.PatientID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		StartDate:    start,
		Status:       models.MedicationActive,
		PrescribedBy: &prescriber,
	}
	if err := s.repo.Clinical().CreateMedication(ctx, medication); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.recordHealthEvent(ctx, &models.HealthEvent{
		PatientID:   req.PatientID,
		Date:        now,
		Type:        models.EventTypeMedication,
		Title:       "Medication Updated",
		Description: fmt.Sprintf("Started %s %s %s", medication.Name, medication.Dosage, strings.ToLower(medication.Frequency)),
	})
	s.publish(ctx, events.NewMedicationUpdatedEvent(events.MedicationUpdatedEvent{
		MedicationID: medication.ID,
		PatientID:    medication.PatientID,
		Name:         medication.Name,
		Action:       "added",
		Prescribed:   true,
	}))
	return medication, nil
}

func (s *clinicalService) StopMedication(ctx context.Context, caller *models.User, patientID, medicationID string) (*models.Medication, error) {
	op := s.logger.WithOperation(ctx, "stop_medication", callerID(caller))

	medication, before, err := s.stopMedication(ctx, caller, patientID, medicationID)
	op.LogResult(medicationID, "medication", err)
	if err == nil {
		op.LogAudit(AuditEventUpdate, medication.ID, "medication", before, medication.Status)
	}
	return medication, err
}

func (s *clinicalService) stopMedication(ctx context.Context, caller *models.User, patientID, medicationID string) (*models.Medication, models.MedicationStatus, error) {
	if err := requireDoctor(caller, "medication", medicationID, "update"); err != nil {
		return nil, "", err
	}

	medication, err := s.repo.Clinical().GetMedication(ctx, medicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrMedicationNotFound
		}
		return nil, "", fmt.Errorf("failed to get medication: %w", err)
	}
	if medication.PatientID != patientID {
		return nil, "", ErrMedicationNotFound
	}
	before := medication.Status
	if before != models.MedicationActive {
		return nil, before, ErrMedicationNotActive
	}

	now := s.now().UTC()
	medication.Status = models.MedicationStopped
	medication.EndDate = &now
	if err := s.repo.Clinical().UpdateMedication(ctx, medication); err != nil {
		return nil, before, fmt.Errorf("failed to update medication: %w", err)
	}

	s.recordHealthEvent(ctx, &models.HealthEvent{
		PatientID:   patientID,
		Date:        now,
		Type:        models.EventTypeMedication,
		Title:       "Medication Updated",
		Description: fmt.Sprintf("Stopped %s %s", medication.Name, medication.Dosage),
	})
	s.publish(ctx, events.NewMedicationUpdatedEvent(events.MedicationUpdatedEvent{
		MedicationID: medication.ID,
		PatientID:    medication.PatientID,
		Name:         medication.Name,
		Action:       "stopped",
		Prescribed:   medication.PrescribedBy != nil,
	}))
	return medication, before, nil
}

// ===== APPOINTMENTS =====

func (s *clinicalService) ListAppointments(ctx context.Context, caller *models.User, patientID string) ([]*models.Appointment, error) {
	if _, err := loadPatient(ctx, s.repo, caller, patientID, "read"); err != nil {
		return nil, err
	}
	appointments, err := s.repo.Clinical().ListAppointments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *clinicalService) ScheduleAppointment(ctx context.Context, caller *models.User, req *ScheduleAppointmentRequest) (*models.Appointment, error) {
	if err := requireDoctor(caller, "appointment", req.PatientID, "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := loadPatient(ctx, s.repo, caller, req.PatientID, "create"); err != nil {
		return nil, err
	}
	if req.Date.Before(s.now()) {
		return nil, NewBusinessRuleError("appointment_in_future", "appointment date must not be in the past",
			map[string]interface{}{"date": req.Date})
	}

	appointment := &models.Appointment{
		ID:        newID("appointment"),
		PatientID: req.PatientID,
		DoctorID:  caller.ID,
		Date:      req.Date.UTC(),
		Type:      req.Type,
		Status:    models.AppointmentScheduled,
		Notes:     req.Notes,
	}
	if err := s.repo.Clinical().CreateAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.logger.Logger().Info("Appointment scheduled", "appointment_id", appointment.ID, "patient_id", req.PatientID)
	return appointment, nil
}

// ===== DIAGNOSTICS =====

// RunDiagnostics validates the clinical inputs and returns a fixed analysis.
// No imaging or biomarker inference is performed.
func (s *clinicalService) RunDiagnostics(ctx context.Context, caller *models.User, req *DiagnosticsRequest) (*DiagnosticsResult, error) {
	if err := requireDoctor(caller, "diagnostics", req.PatientID, "run"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := loadPatient(ctx, s.repo, caller, req.PatientID, "run"); err != nil {
		return nil, err
	}

	mmse := defaultMMSEScore
	if req.MMSEScore != nil {
		mmse = *req.MMSEScore
	}

	result := &DiagnosticsResult{
		PatientID: req.PatientID,
		MMSEScore: mmse,
		CDRScore:  *req.CDRScore,
		PrimaryDiagnosis: Diagnosis{
			Name:        "Alzheimer's Disease",
			Probability: models.RiskHigh,
			Stage:       "Early to moderate stage",
		},
		Probabilities: []DiseaseProbability{
			{Disease: "Alzheimer's Disease", Percent: 78, Level: models.RiskHigh},
			{Disease: "Vascular Dementia", Percent: 32, Level: models.RiskModerate},
			{Disease: "Frontotemporal Dementia", Percent: 15, Level: models.RiskLow},
		},
		MRIFindings: []Finding{
			{Title: "Hippocampal Atrophy", Description: "Significant volume reduction in hippocampus (bilateral)", Severity: models.RiskHigh},
			{Title: "Cortical Thinning", Description: "Temporal and parietal cortex showing decreased thickness", Severity: models.RiskModerate},
			{Title: "White Matter Changes", Description: "Moderate periventricular white matter hyperintensities", Severity: models.RiskModerate},
		},
		Recommendations: []string{
			"Initiate cholinesterase inhibitor therapy (Donepezil 5mg daily)",
			"Consider adding Memantine for moderate symptoms",
			"Schedule follow-up MRI in 6 months to monitor progression",
			"Refer to occupational therapy for daily living support",
			"Provide caregiver education and support resources",
		},
		CompletedAt: s.now().UTC(),
	}

	disease := string(models.DiseaseAlzheimers)
	severity := models.RiskHigh
	s.recordHealthEvent(ctx, &models.HealthEvent{
		PatientID:   req.PatientID,
		Date:        result.CompletedAt,
		Type:        models.EventTypeDiagnosis,
		Title:       "Diagnostic Analysis Completed",
		Description: fmt.Sprintf("MRI %s analysed (MMSE %d, CDR %g)", req.MRIFileName, mmse, result.CDRScore),
		Severity:    &severity,
		Disease:     &disease,
	})
	return result, nil
}

// ===== HELPERS =====

func (s *clinicalService) recordHealthEvent(ctx context.Context, event *models.HealthEvent) {
	event.ID = newID("event")
	if err := s.repo.Clinical().CreateHealthEvent(ctx, event); err != nil {
		s.logger.Logger().Error("Failed to record health event", "patient_id", event.PatientID, "type", event.Type, "error", err)
	}
}

func (s *clinicalService) publish(ctx context.Context, event *events.NotificationEvent) {
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Logger().Error("Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}
