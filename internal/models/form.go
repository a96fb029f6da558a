package models

import (
	"encoding/json"
	"fmt"
)

// AssessmentFormData is the validated shape of a submitted questionnaire.
// JSON names match the questionnaire field keys.
type AssessmentFormData struct {
	// Demographics
	Age                int    `json:"age" validate:"required,min=18,max=120"`
	Gender             string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Weight             int    `json:"weight" validate:"omitempty,min=20,max=300"`
	Height             int    `json:"height" validate:"omitempty,min=50,max=250"`
	Education          string `json:"education" validate:"omitempty,oneof=high-school bachelors masters doctorate"`
	Occupation         string `json:"occupation" validate:"max=200"`
	LanguagePreference string `json:"languagePreference" validate:"max=100"`

	// Medical and family history
	FamilyHistory     []string `json:"familyHistory"`
	MedicalConditions []string `json:"medicalConditions"`
	Medications       []string `json:"medications"`
	Allergies         string   `json:"allergies" validate:"max=500"`

	// Lifestyle
	PhysicalActivity   string `json:"physicalActivity" validate:"omitempty,oneof=sedentary light moderate active"`
	SleepQuality       string `json:"sleepQuality" validate:"omitempty,oneof=poor fair good excellent"`
	AlcoholConsumption int    `json:"alcoholConsumption" validate:"min=0,max=100"`
	SmokingStatus      string `json:"smokingStatus" validate:"omitempty,oneof=never former current"`
	DietType           string `json:"dietType" validate:"omitempty,oneof=non-vegetarian vegetarian vegan mediterranean standard"`
	CoffeeConsumption  int    `json:"coffeeConsumption" validate:"min=0,max=50"`
	SocialEngagement   string `json:"socialEngagement" validate:"omitempty,oneof=low moderate high"`

	// Cognitive and neurological symptoms
	MemoryComplaints     string   `json:"memoryComplaints" validate:"omitempty,oneof=yes no"`
	SpeechIssues         string   `json:"speechIssues" validate:"omitempty,oneof=yes no"`
	NeurologicalSymptoms []string `json:"neurologicalSymptoms"`
	MoodChanges          string   `json:"moodChanges" validate:"max=500"`
}

// FormDataFromState decodes a key/value form state.
func FormDataFromState(state map[string]any) (*AssessmentFormData, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form state: %w", err)
	}
	var data AssessmentFormData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode form state: %w", err)
	}
	return &data, nil
}

// AnsweredCount counts fields holding a non-zero answer.
func AnsweredCount(state map[string]any) int {
	n := 0
	for _, v := range state {
		switch val := v.(type) {
		case nil:
		case string:
			if val != "" {
				n++
			}
		case []string:
			if len(val) > 0 {
				n++
			}
		case []any:
			if len(val) > 0 {
				n++
			}
		default:
			n++
		}
	}
	return n
}
