package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/services"
)

func TestPatientHandler_ListPatients(t *testing.T) {
	ts := newTestServer(t)

	t.Run("All", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients", "doctor-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]services.PatientSummary](t, w), 3)
	})

	t.Run("HighRisk", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients?risk=high", "doctor-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		roster := decode[[]services.PatientSummary](t, w)
		require.Len(t, roster, 1)
		assert.Equal(t, "patient-1", roster[0].Patient.ID)
		assert.Equal(t, models.RiskHigh, roster[0].RiskLevel)
	})

	t.Run("Search", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients?search=jane", "doctor-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		roster := decode[[]services.PatientSummary](t, w)
		require.Len(t, roster, 1)
		assert.Equal(t, "patient-2", roster[0].Patient.ID)
	})

	t.Run("InvalidRisk", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients?risk=extreme", "doctor-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("PatientForbidden", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients", "patient-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPatientHandler_GetPatient(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		caller   string
		path     string
		wantCode int
	}{
		{"Self", "patient-1", "/api/v1/patients/patient-1", http.StatusOK},
		{"Doctor", "doctor-2", "/api/v1/patients/patient-1", http.StatusOK},
		{"OtherPatient", "patient-2", "/api/v1/patients/patient-1", http.StatusForbidden},
		{"Unknown", "doctor-1", "/api/v1/patients/patient-99", http.StatusNotFound},
		{"DoctorIsNotAPatient", "doctor-1", "/api/v1/patients/doctor-2", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.path, tt.caller, nil)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestPatientHandler_Dashboard(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/dashboard", "patient-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decode[services.PatientDashboard](t, w)
	assert.Equal(t, models.RiskHigh, dashboard.RiskLevel)
	assert.Equal(t, 1, dashboard.AssessmentCount)
	assert.Equal(t, 4, dashboard.ActiveMedications)
	assert.Len(t, dashboard.RecentEvents, 3)
}

func TestPatientHandler_Timeline(t *testing.T) {
	ts := newTestServer(t)

	t.Run("All", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/timeline", "patient-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.HealthEvent](t, w), 5)
	})

	t.Run("FilteredByType", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/timeline?type=assessment", "patient-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		timeline := decode[[]models.HealthEvent](t, w)
		require.Len(t, timeline, 2)
		for _, e := range timeline {
			assert.Equal(t, models.EventTypeAssessment, e.Type)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/timeline?type=surgery", "patient-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPatientHandler_DoctorDashboard(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/doctors/dashboard", "doctor-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decode[services.DoctorDashboard](t, w)
	assert.Equal(t, 3, dashboard.TotalPatients)
	assert.Equal(t, 1, dashboard.HighRiskPatients)
	assert.Len(t, dashboard.Patients, 3)
}

func TestPatientHandler_DownloadReport(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/report.xlsx", "doctor-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="patient-1-report-`)

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Assessments", "Risk Scores", "Medications", "Notes"}, f.GetSheetList())

	t.Run("PatientForbidden", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/api/v1/patients/patient-1/report.xlsx", "patient-1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
