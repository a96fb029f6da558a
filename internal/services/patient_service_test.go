package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/models"
)

func patientIDs(summaries []*PatientSummary) []string {
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.Patient.ID
	}
	return ids
}

func TestPatientService_ListPatients(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	tests := []struct {
		name string
		req  *PatientListRequest
		want []string
	}{
		{"all", &PatientListRequest{}, []string{"patient-1", "patient-2", "patient-3"}},
		{"explicit all", &PatientListRequest{Risk: "all"}, []string{"patient-1", "patient-2", "patient-3"}},
		{"high risk", &PatientListRequest{Risk: models.RiskHigh}, []string{"patient-1"}},
		{"moderate risk", &PatientListRequest{Risk: models.RiskModerate}, []string{"patient-2", "patient-3"}},
		{"low risk", &PatientListRequest{Risk: models.RiskLow}, []string{}},
		{"search by name", &PatientListRequest{Search: "JANE"}, []string{"patient-2"}},
		{"search by email", &PatientListRequest{Search: "robert@"}, []string{"patient-3"}},
		{"search and risk", &PatientListRequest{Search: "john", Risk: models.RiskModerate}, []string{"patient-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListPatients(ctx, doctor, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, patientIDs(got))
		})
	}
}

func TestPatientService_ListPatientsRequiresDoctor(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()

	_, err := svc.ListPatients(context.Background(), env.user(t, "patient-1"), nil)
	assert.True(t, IsForbidden(err))

	_, err = svc.ListPatients(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPatientService_InvalidRiskFilter(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.patientService().ListPatients(context.Background(), env.user(t, "doctor-1"), &PatientListRequest{Risk: "extreme"})
	assert.True(t, IsValidation(err))
}

func TestPatientService_RosterIsCached(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()
	ctx := context.Background()

	_, err := svc.ListPatients(ctx, env.user(t, "doctor-1"), nil)
	require.NoError(t, err)

	var cached []*PatientSummary
	require.NoError(t, env.cache.Get(ctx, rosterCacheKey, &cached))
	assert.Len(t, cached, 3)
	assert.Equal(t, models.RiskHigh, cached[0].RiskLevel)
}

func TestPatientService_DoctorDashboard(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()

	dashboard, err := svc.DoctorDashboard(context.Background(), env.user(t, "doctor-2"), &PatientListRequest{Risk: models.RiskModerate})
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.TotalPatients)
	assert.Equal(t, 1, dashboard.HighRiskPatients)
	assert.Equal(t, int64(0), dashboard.PendingAssessments)
	assert.Equal(t, []string{"patient-2", "patient-3"}, patientIDs(dashboard.Patients))
}

func TestPatientService_Dashboard(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()
	patient := env.user(t, "patient-1")

	dashboard, err := svc.Dashboard(context.Background(), patient, "patient-1")
	require.NoError(t, err)

	assert.Equal(t, "John Smith", dashboard.Patient.FullName())
	assert.Equal(t, models.RiskHigh, dashboard.RiskLevel)
	assert.Equal(t, 1, dashboard.AssessmentCount)
	assert.Equal(t, "assessment-1", dashboard.LatestAssessment.ID)
	assert.Equal(t, 4, dashboard.ActiveMedications)
	require.Len(t, dashboard.RecentEvents, 3)
	assert.Equal(t, "event-1", dashboard.RecentEvents[0].ID)
	require.Len(t, dashboard.UpcomingAppointments, 1)
	assert.Equal(t, "appointment-1", dashboard.UpcomingAppointments[0].ID)
}

func TestPatientService_Access(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()
	ctx := context.Background()

	t.Run("patient reads self", func(t *testing.T) {
		p, err := svc.GetPatient(ctx, env.user(t, "patient-2"), "patient-2")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", p.Email)
	})

	t.Run("patient cannot read others", func(t *testing.T) {
		_, err := svc.GetPatient(ctx, env.user(t, "patient-2"), "patient-1")
		var perr *PermissionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "patient-1", perr.ResourceID)
	})

	t.Run("doctor reads any patient", func(t *testing.T) {
		_, err := svc.GetPatient(ctx, env.user(t, "doctor-2"), "patient-1")
		assert.NoError(t, err)
	})

	t.Run("doctor id is not a patient", func(t *testing.T) {
		_, err := svc.GetPatient(ctx, env.user(t, "doctor-1"), "doctor-2")
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := svc.Dashboard(ctx, env.user(t, "doctor-1"), "patient-9")
		assert.True(t, IsNotFound(err))
	})
}

func TestPatientService_Timeline(t *testing.T) {
	env := newTestEnv(t)
	svc := env.patientService()
	doctor := env.user(t, "doctor-1")

	all, err := svc.Timeline(context.Background(), doctor, "patient-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.After(all[i-1].Date), "timeline must be newest first")
	}

	kind := models.EventTypeAssessment
	assessments, err := svc.Timeline(context.Background(), doctor, "patient-1", &kind)
	require.NoError(t, err)
	require.Len(t, assessments, 2)
	assert.Equal(t, "event-1", assessments[0].ID)
	assert.Equal(t, "event-4", assessments[1].ID)
}

func TestRiskOf(t *testing.T) {
	assert.Equal(t, models.RiskNone, riskOf(nil))
	assert.Equal(t, models.RiskLow, riskOf(&models.Assessment{}))
}

func TestPatientService_NoopCache(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPatientService(env.repo, cache.NewNoopCache(), env.logger, env.validator)

	got, err := svc.ListPatients(context.Background(), env.user(t, "doctor-1"), &PatientListRequest{Risk: models.RiskHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"patient-1"}, patientIDs(got))
}
