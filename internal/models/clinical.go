package models

import "time"

type HealthEventType string

const (
	EventTypeAssessment HealthEventType = "assessment"
	EventTypeDiagnosis  HealthEventType = "diagnosis"
	EventTypeMedication HealthEventType = "medication"
	EventTypeNote       HealthEventType = "note"
	EventTypeFollowUp   HealthEventType = "follow-up"
)

type HealthEvent struct {
	ID          string          `json:"id" gorm:"primaryKey;size:64"`
	PatientID   string          `json:"patient_id" gorm:"not null;size:64;index"`
	Date        time.Time       `json:"date" gorm:"not null;index"`
	Type        HealthEventType `json:"type" gorm:"not null;size:20"`
	Title       string          `json:"title" gorm:"not null;size:200"`
	Description string          `json:"description" gorm:"type:text"`
	Severity    *RiskLevel      `json:"severity,omitempty" gorm:"size:20"`
	Disease     *string         `json:"disease,omitempty" gorm:"size:50"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (HealthEvent) TableName() string {
	return "health_events"
}

type NoteType string

const (
	NoteAssessment   NoteType = "assessment"
	NoteFollowUp     NoteType = "follow-up"
	NoteIntervention NoteType = "intervention"
	NoteGeneral      NoteType = "general"
)

type ClinicalNote struct {
	ID         string    `json:"id" gorm:"primaryKey;size:64"`
	PatientID  string    `json:"patient_id" gorm:"not null;size:64;index"`
	DoctorID   string    `json:"doctor_id" gorm:"not null;size:64;index"`
	DoctorName string    `json:"doctor_name" gorm:"size:200"`
	Date       time.Time `json:"date" gorm:"not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	NoteType   NoteType  `json:"note_type" gorm:"not null;size:20"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ClinicalNote) TableName() string {
	return "clinical_notes"
}

type MedicationStatus string

const (
	MedicationActive    MedicationStatus = "active"
	MedicationStopped   MedicationStatus = "stopped"
	MedicationCompleted MedicationStatus = "completed"
)

type Medication struct {
	ID           string           `json:"id" gorm:"primaryKey;size:64"`
	PatientID    string           `json:"patient_id" gorm:"not null;size:64;index"`
	Name         string           `json:"name" gorm:"not null;size:200"`
	Dosage       string           `json:"dosage" gorm:"size:50"`
	Frequency    string           `json:"frequency" gorm:"size:50"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Status       MedicationStatus `json:"status" gorm:"not null;size:20;default:'active'"`
	PrescribedBy *string          `json:"prescribed_by,omitempty" gorm:"size:200"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (Medication) TableName() string {
	return "medications"
}

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID        string            `json:"id" gorm:"primaryKey;size:64"`
	PatientID string            `json:"patient_id" gorm:"not null;size:64;index"`
	DoctorID  string            `json:"doctor_id" gorm:"not null;size:64;index"`
	Date      time.Time         `json:"date" gorm:"not null"`
	Type      string            `json:"type" gorm:"size:50"`
	Status    AppointmentStatus `json:"status" gorm:"not null;size:20;default:'scheduled'"`
	Notes     *string           `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time         `json:"created_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}
