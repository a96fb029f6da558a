package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/services"
)

func TestClinicalHandler_Notes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/notes", "doctor-1", map[string]string{
		"content":   "  Follow-up in two weeks.  ",
		"note_type": "follow-up",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := decode[models.ClinicalNote](t, w)
	assert.Equal(t, "Follow-up in two weeks.", note.Content)
	assert.Equal(t, "doctor-1", note.DoctorID)
	assert.Len(t, ts.publisher.EventsOfType(events.EventNoteAdded), 1)

	w = ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/notes", "patient-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[[]models.ClinicalNote](t, w)
	require.Len(t, notes, 4)
	assert.Equal(t, note.ID, notes[0].ID)

	t.Run("EmptyContent", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/notes", "doctor-1", map[string]string{"content": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("PatientCannotWrite", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/notes", "patient-1", map[string]string{"content": "hi"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestClinicalHandler_Medications(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/medications", "doctor-1", map[string]string{
		"name": "Rivastigmine", "dosage": "1.5mg", "frequency": "Twice daily",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[models.Medication](t, w)
	assert.Equal(t, "patient-2", added.PatientID)
	assert.Equal(t, models.MedicationActive, added.Status)

	t.Run("Stop", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/medications/"+added.ID+"/stop", "doctor-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.MedicationStopped, decode[models.Medication](t, w).Status)
	})

	t.Run("StopTwice", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/medications/"+added.ID+"/stop", "doctor-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("WrongPatient", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/medications/med-1/stop", "doctor-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-2/medications", "doctor-1", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.Len(t, ts.publisher.EventsOfType(events.EventMedicationUpdated), 2)
}

func TestClinicalHandler_Appointments(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/appointments", "doctor-1", map[string]any{
		"date": time.Now().Add(72 * time.Hour), "type": "MRI Review",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.AppointmentScheduled, decode[models.Appointment](t, w).Status)

	w = ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/appointments", "patient-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Appointment](t, w), 3)

	t.Run("InThePast", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/appointments", "doctor-1", map[string]any{
			"date": time.Now().Add(-time.Hour), "type": "Check-up",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestClinicalHandler_Diagnostics(t *testing.T) {
	ts := newTestServer(t)

	t.Run("JSON", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/diagnostics", "doctor-1", map[string]any{
			"mri_file_name": "scan.dcm", "cdr_score": 0.5,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[services.DiagnosticsResult](t, w)
		assert.Equal(t, 24, result.MMSEScore)
		assert.Equal(t, "patient-1", result.PatientID)
		assert.Len(t, result.Probabilities, 3)
	})

	t.Run("Multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("mri", "brain.nii")
		require.NoError(t, err)
		_, _ = part.Write([]byte("nifti"))
		require.NoError(t, mw.WriteField("mmse_score", "21"))
		require.NoError(t, mw.WriteField("cdr_score", "1"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/patient-1/diagnostics", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set(UserIDHeader, "doctor-1")
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decode[services.DiagnosticsResult](t, w)
		assert.Equal(t, 21, result.MMSEScore)
		assert.Equal(t, 1.0, result.CDRScore)
	})

	t.Run("MissingCDR", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/diagnostics", "doctor-1", map[string]any{
			"mri_file_name": "scan.dcm",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingMRI", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/v1/patients/patient-1/diagnostics", "doctor-1", map[string]any{
			"cdr_score": 0.5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
