package services

import (
	"context"
	"time"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/voice"
)

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*models.User, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type PatientService interface {
	ListPatients(ctx context.Context, caller *models.User, req *PatientListRequest) ([]*PatientSummary, error)
	GetPatient(ctx context.Context, caller *models.User, patientID string) (*models.User, error)
	Dashboard(ctx context.Context, caller *models.User, patientID string) (*PatientDashboard, error)
	Timeline(ctx context.Context, caller *models.User, patientID string, eventType *models.HealthEventType) ([]*models.HealthEvent, error)
	DoctorDashboard(ctx context.Context, caller *models.User, req *PatientListRequest) (*DoctorDashboard, error)
}

type AssessmentService interface {
	ListByPatient(ctx context.Context, caller *models.User, patientID string) ([]*models.Assessment, error)
	Get(ctx context.Context, caller *models.User, id string) (*models.Assessment, error)
	Submit(ctx context.Context, caller *models.User, patientID string, state map[string]any) (*models.Assessment, error)
}

type ClinicalService interface {
	ListNotes(ctx context.Context, caller *models.User, patientID string) ([]*models.ClinicalNote, error)
	AddNote(ctx context.Context, caller *models.User, req *AddNoteRequest) (*models.ClinicalNote, error)

	ListMedications(ctx context.Context, caller *models.User, patientID string) ([]*models.Medication, error)
	AddMedication(ctx context.Context, caller *models.User, req *AddMedicationRequest) (*models.Medication, error)
	StopMedication(ctx context.Context, caller *models.User, patientID, medicationID string) (*models.Medication, error)

	ListAppointments(ctx context.Context, caller *models.User, patientID string) ([]*models.Appointment, error)
	ScheduleAppointment(ctx context.Context, caller *models.User, req *ScheduleAppointmentRequest) (*models.Appointment, error)

	RunDiagnostics(ctx context.Context, caller *models.User, req *DiagnosticsRequest) (*DiagnosticsResult, error)
}

type ExportService interface {
	// PatientReport renders an xlsx workbook and a suggested file name.
	PatientReport(ctx context.Context, caller *models.User, patientID string) ([]byte, string, error)
}

type SpeechService interface {
	Transcribe(ctx context.Context, req *TranscribeRequest) (*speech.Transcription, error)
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)
	Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error)
}

type VoiceService interface {
	NewSession(ctx context.Context, caller *models.User, req *VoiceSessionRequest) (*VoiceSession, error)
}

// ===== REQUESTS =====

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PatientListRequest struct {
	Search string           `json:"search" form:"search"`
	Risk   models.RiskLevel `json:"risk" form:"risk" validate:"omitempty,oneof=all high moderate low"`
}

type AddNoteRequest struct {
	PatientID string          `json:"patient_id" validate:"required"`
	Content   string          `json:"content" validate:"required,max=5000"`
	NoteType  models.NoteType `json:"note_type" validate:"omitempty,note_type"`
}

type AddMedicationRequest struct {
	PatientID string     `json:"patient_id" validate:"required"`
	Name      string     `json:"name" validate:"required,max=200"`
	Dosage    string     `json:"dosage" validate:"required,max=50"`
	Frequency string     `json:"frequency" validate:"required,max=50"`
	StartDate *time.Time `json:"start_date"`
}

type ScheduleAppointmentRequest struct {
	PatientID string    `json:"patient_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Type      string    `json:"type" validate:"required,max=50"`
	Notes     *string   `json:"notes" validate:"omitempty,max=1000"`
}

type DiagnosticsRequest struct {
	PatientID   string   `json:"patient_id" validate:"required"`
	MRIFileName string   `json:"mri_file_name" validate:"required"`
	MMSEScore   *int     `json:"mmse_score" validate:"omitempty,min=0,max=30"`
	CDRScore    *float64 `json:"cdr_score" validate:"required,cdr_score"`
	CSFTau      *float64 `json:"csf_tau" validate:"omitempty,min=0"`
	CSFAbeta42  *float64 `json:"csf_abeta42" validate:"omitempty,min=0"`
	APOE4Status string   `json:"apoe4_status" validate:"omitempty,oneof=none hetero homo"`
}

type TranscribeRequest struct {
	Audio    string `json:"audio" validate:"required"`
	MIMEType string `json:"mime_type"`
}

type SynthesizeRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type ExtractRequest struct {
	Text  string `json:"text" validate:"required"`
	Field string `json:"field" validate:"required"`
}

type VoiceSessionRequest struct {
	PatientID string
	Lang      string
	Speaker   speech.Speaker
	Recorder  voice.Recorder
	Observer  voice.Observer
	Scheduler voice.Scheduler
}

// ===== RESPONSES =====

type PatientSummary struct {
	Patient          *models.User       `json:"patient"`
	RiskLevel        models.RiskLevel   `json:"risk_level"`
	LatestAssessment *models.Assessment `json:"latest_assessment,omitempty"`
}

type PatientDashboard struct {
	Patient              *models.User          `json:"patient"`
	RiskLevel            models.RiskLevel      `json:"risk_level"`
	LatestAssessment     *models.Assessment    `json:"latest_assessment,omitempty"`
	AssessmentCount      int                   `json:"assessment_count"`
	ActiveMedications    int                   `json:"active_medications"`
	RecentEvents         []*models.HealthEvent `json:"recent_events"`
	UpcomingAppointments []*models.Appointment `json:"upcoming_appointments"`
}

type DoctorDashboard struct {
	TotalPatients      int               `json:"total_patients"`
	HighRiskPatients   int               `json:"high_risk_patients"`
	PendingAssessments int64             `json:"pending_assessments"`
	Patients           []*PatientSummary `json:"patients"`
}

type Diagnosis struct {
	Name        string           `json:"name"`
	Probability models.RiskLevel `json:"probability"`
	Stage       string           `json:"stage"`
}

type DiseaseProbability struct {
	Disease string           `json:"disease"`
	Percent int              `json:"percent"`
	Level   models.RiskLevel `json:"level"`
}

type Finding struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Severity    models.RiskLevel `json:"severity"`
}

type DiagnosticsResult struct {
	PatientID        string               `json:"patient_id"`
	MMSEScore        int                  `json:"mmse_score"`
	CDRScore         float64              `json:"cdr_score"`
	PrimaryDiagnosis Diagnosis            `json:"primary_diagnosis"`
	Probabilities    []DiseaseProbability `json:"probabilities"`
	MRIFindings      []Finding            `json:"mri_findings"`
	Recommendations  []string             `json:"recommendations"`
	CompletedAt      time.Time            `json:"completed_at"`
}

type SynthesizeResponse struct {
	AudioContent string `json:"audio_content"`
	MIMEType     string `json:"mime_type"`
}

type ExtractResponse struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Matched bool   `json:"matched"`
}
