package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/questionnaire"
)

type noteInput struct {
	NoteType string  `json:"note_type" validate:"required,note_type"`
	Level    string  `json:"level" validate:"omitempty,risk_level"`
	Role     string  `json:"role" validate:"omitempty,user_role"`
	CDR      float64 `json:"cdr" validate:"cdr_score"`
}

func TestValidate_CustomTags(t *testing.T) {
	v := New(nil)

	assert.NoError(t, v.Validate(noteInput{NoteType: "follow-up", Level: "high", Role: "doctor", CDR: 0.5}))

	err := v.Validate(noteInput{NoteType: "memo", Level: "extreme", Role: "nurse", CDR: 1.5})
	require.Error(t, err)
	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, errs, 4)
	assert.Equal(t, "note_type", errs[0].Field)
	assert.Equal(t, "note_type", errs[0].Rule)
	assert.Equal(t, "cdr", errs[3].Field)
}

func TestValidateFormState(t *testing.T) {
	q := questionnaire.Default()
	v := New(NewFormValidator(q))

	state := q.Defaults()
	state["gender"] = "Female"
	state["familyHistory"] = []string{"Dementia", "Stroke"}

	data, err := v.ValidateFormState(state)
	require.NoError(t, err)
	assert.Equal(t, 65, data.Age)
	assert.Equal(t, "Female", data.Gender)
}

func TestValidateFormState_Rejects(t *testing.T) {
	q := questionnaire.Default()
	v := New(NewFormValidator(q))

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown field", "shoeSize", 42},
		{"enum outside options", "dietType", "carnivore"},
		{"list outside options", "familyHistory", []any{"Dementia", "Gout"}},
		{"number as text", "age", "sixty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := q.Defaults()
			state[tt.key] = tt.value

			_, err := v.ValidateFormState(state)
			errs, ok := err.(ValidationErrors)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.key, errs[0].Field)
		})
	}
}

func TestValidateFormState_StructRules(t *testing.T) {
	v := New(NewFormValidator(questionnaire.Default()))

	_, err := v.ValidateFormState(map[string]any{"age": 7})
	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "age", errs[0].Field)
	assert.Equal(t, "min", errs[0].Rule)

	_, err = v.ValidateFormState(map[string]any{"age": 70, "gender": "Male", "alcoholConsumption": 2})
	assert.NoError(t, err)
}
