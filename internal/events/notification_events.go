package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the service publishes
type EventType string

const (
	EventAssessmentSubmitted   EventType = "assessment.submitted"
	EventNoteAdded             EventType = "note.added"
	EventMedicationUpdated     EventType = "medication.updated"
	EventVoiceSectionCompleted EventType = "voice.section_completed"
)

const (
	eventSource  = "neurosense-assessment-service"
	eventVersion = "1.0"
)

// NotificationEvent is the envelope shared by every published event
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AssessmentSubmittedEvent struct {
	AssessmentID string            `json:"assessment_id"`
	PatientID    string            `json:"patient_id"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	RiskLevels   map[string]string `json:"risk_levels"`
	Answered     int               `json:"answered_fields"`
}

type NoteAddedEvent struct {
	NoteID    string `json:"note_id"`
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	NoteType  string `json:"note_type"`
}

type MedicationUpdatedEvent struct {
	MedicationID string `json:"medication_id"`
	PatientID    string `json:"patient_id"`
	Name         string `json:"name"`
	Action       string `json:"action"` // added or stopped
	Prescribed   bool   `json:"prescribed"`
}

type VoiceSectionCompletedEvent struct {
	SessionID string `json:"session_id"`
	PatientID string `json:"patient_id,omitempty"`
	Page      int    `json:"page"`
	Answered  int    `json:"answered_fields"`
}

func newEvent(t EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAssessmentSubmittedEvent(data AssessmentSubmittedEvent) *NotificationEvent {
	return newEvent(EventAssessmentSubmitted, data)
}

func NewNoteAddedEvent(data NoteAddedEvent) *NotificationEvent {
	return newEvent(EventNoteAdded, data)
}

func NewMedicationUpdatedEvent(data MedicationUpdatedEvent) *NotificationEvent {
	return newEvent(EventMedicationUpdated, data)
}

func NewVoiceSectionCompletedEvent(data VoiceSectionCompletedEvent) *NotificationEvent {
	return newEvent(EventVoiceSectionCompleted, data)
}

// GenerateEventID returns a random UUID string
func GenerateEventID() string {
	return uuid.NewString()
}
