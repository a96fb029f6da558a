package models

import (
	"time"

	"gorm.io/datatypes"
)

type RiskLevel string

const (
	RiskHigh     RiskLevel = "high"
	RiskModerate RiskLevel = "moderate"
	RiskLow      RiskLevel = "low"
	// RiskNone is reported for patients without any assessment.
	RiskNone RiskLevel = "none"
)

type Disease string

const (
	DiseaseAlzheimers Disease = "Alzheimer's"
	DiseaseParkinsons Disease = "Parkinson's"
	DiseaseDementia   Disease = "Dementia"
)

type AssessmentStatus string

const (
	StatusCompleted  AssessmentStatus = "completed"
	StatusPending    AssessmentStatus = "pending"
	StatusInProgress AssessmentStatus = "in-progress"
)

type RiskScore struct {
	Disease     Disease   `json:"disease"`
	Score       int       `json:"score"`      // 0-100
	Confidence  int       `json:"confidence"` // 0-100
	Level       RiskLevel `json:"level" validate:"risk_level"`
	LastUpdated time.Time `json:"last_updated"`
}

type RiskFactor struct {
	Factor string `json:"factor"`
	Impact int    `json:"impact"`
}

type Assessment struct {
	ID        string           `json:"id" gorm:"primaryKey;size:64"`
	PatientID string           `json:"patient_id" gorm:"not null;size:64;index"`
	Date      time.Time        `json:"date" gorm:"not null;index"`
	Status    AssessmentStatus `json:"status" gorm:"not null;size:20;default:'pending'"`

	RiskScores       datatypes.JSONSlice[RiskScore]  `json:"risk_scores" gorm:"type:jsonb"`
	AIInterpretation string                          `json:"ai_interpretation,omitempty" gorm:"type:text"`
	DoctorNotes      string                          `json:"doctor_notes,omitempty" gorm:"type:text"`
	Recommendations  datatypes.JSONSlice[string]     `json:"recommendations,omitempty" gorm:"type:jsonb"`
	TopRiskFactors   datatypes.JSONSlice[RiskFactor] `json:"top_risk_factors,omitempty" gorm:"type:jsonb"`

	// FormState holds the raw answers the patient submitted.
	FormState datatypes.JSONMap `json:"form_state,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// OverallRisk is high when any score is high, else moderate when any score is
// moderate, else low.
func (a *Assessment) OverallRisk() RiskLevel {
	level := RiskLow
	for _, r := range a.RiskScores {
		switch r.Level {
		case RiskHigh:
			return RiskHigh
		case RiskModerate:
			level = RiskModerate
		}
	}
	return level
}

func (a *Assessment) HasRiskLevel(level RiskLevel) bool {
	for _, r := range a.RiskScores {
		if r.Level == level {
			return true
		}
	}
	return false
}

// RiskLevels maps disease names to their level.
func (a *Assessment) RiskLevels() map[string]string {
	out := make(map[string]string, len(a.RiskScores))
	for _, r := range a.RiskScores {
		out[string(r.Disease)] = string(r.Level)
	}
	return out
}
