package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
)

func TestAssessmentHandler_SubmitAndGet(t *testing.T) {
	ts := newTestServer(t)

	form := map[string]any{
		"age":           68,
		"gender":        "Male",
		"familyHistory": []string{"Alzheimer's Disease"},
	}
	w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/assessments", "patient-1", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Assessment](t, w)
	assert.Equal(t, "patient-1", created.PatientID)
	assert.Equal(t, models.StatusCompleted, created.Status)
	assert.Len(t, created.RiskScores, 3)
	assert.Len(t, ts.publisher.EventsOfType(events.EventAssessmentSubmitted), 1)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, "doctor-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[models.Assessment](t, w).ID)

	w = ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/assessments", "patient-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Assessment](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestAssessmentHandler_SubmitValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		form map[string]any
	}{
		{"UnknownField", map[string]any{"shoeSize": 42}},
		{"WrongKind", map[string]any{"age": "old"}},
		{"UnknownOption", map[string]any{"gender": "Robot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/assessments", "patient-1", tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Message)
		})
	}
	assert.Empty(t, ts.publisher.GetPublishedEvents())
}

func TestAssessmentHandler_Access(t *testing.T) {
	ts := newTestServer(t)

	t.Run("SubmitForAnotherPatient", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/assessments", "patient-1", map[string]any{})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("ReadAnotherPatientsAssessment", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/assessments/assessment-2", "patient-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/assessments/assessment-404", "doctor-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/assessments", "patient-1", []int{1, 2})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
