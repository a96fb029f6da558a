package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestClinicalService_AddNote(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	note, err := svc.AddNote(ctx, doctor, &AddNoteRequest{PatientID: "patient-1", Content: "  Cognitive testing scheduled.  "})
	require.NoError(t, err)
	assert.Equal(t, "Cognitive testing scheduled.", note.Content)
	assert.Equal(t, models.NoteGeneral, note.NoteType)
	assert.Equal(t, "Dr. Alice Williams", note.DoctorName)
	assert.Equal(t, fixedNow, note.Date)

	notes, err := svc.ListNotes(ctx, doctor, "patient-1")
	require.NoError(t, err)
	require.Len(t, notes, 4)
	assert.Equal(t, note.ID, notes[0].ID)

	published := env.publisher.EventsOfType(events.EventNoteAdded)
	require.Len(t, published, 1)
	assert.Equal(t, note.ID, published[0].Data.(events.NoteAddedEvent).NoteID)
}

func TestClinicalService_AddNoteValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	tests := []struct {
		name  string
		req   *AddNoteRequest
		field string
	}{
		{"blank content", &AddNoteRequest{PatientID: "patient-1", Content: "   "}, "content"},
		{"missing patient", &AddNoteRequest{Content: "hello"}, "patient_id"},
		{"bad note type", &AddNoteRequest{PatientID: "patient-1", Content: "hello", NoteType: "gossip"}, "note_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddNote(ctx, doctor, tt.req)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestClinicalService_PatientsCannotWrite(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	patient := env.user(t, "patient-1")
	ctx := context.Background()

	_, err := svc.AddNote(ctx, patient, &AddNoteRequest{PatientID: "patient-1", Content: "self note"})
	assert.True(t, IsForbidden(err))

	_, err = svc.AddMedication(ctx, patient, &AddMedicationRequest{PatientID: "patient-1", Name: "X", Dosage: "1mg", Frequency: "daily"})
	assert.True(t, IsForbidden(err))

	_, err = svc.StopMedication(ctx, patient, "patient-1", "med-1")
	assert.True(t, IsForbidden(err))

	_, err = svc.RunDiagnostics(ctx, patient, &DiagnosticsRequest{PatientID: "patient-1", MRIFileName: "scan.dcm", CDRScore: ptr(0.5)})
	assert.True(t, IsForbidden(err))

	meds, err := svc.ListMedications(ctx, patient, "patient-1")
	require.NoError(t, err)
	assert.Len(t, meds, 4)
}

func TestClinicalService_Medications(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	t.Run("add", func(t *testing.T) {
		med, err := svc.AddMedication(ctx, doctor, &AddMedicationRequest{
			PatientID: "patient-2", Name: "Rivastigmine", Dosage: "1.5mg", Frequency: "Twice daily",
		})
		require.NoError(t, err)
		assert.Equal(t, models.MedicationActive, med.Status)
		assert.Equal(t, fixedNow, med.StartDate)
		assert.Equal(t, "Dr. Alice Williams", *med.PrescribedBy)

		published := env.publisher.EventsOfType(events.EventMedicationUpdated)
		require.Len(t, published, 1)
		assert.Equal(t, "added", published[0].Data.(events.MedicationUpdatedEvent).Action)
	})

	t.Run("stop", func(t *testing.T) {
		env.publisher.ClearEvents()

		med, err := svc.StopMedication(ctx, doctor, "patient-1", "med-2")
		require.NoError(t, err)
		assert.Equal(t, models.MedicationStopped, med.Status)
		require.NotNil(t, med.EndDate)
		assert.Equal(t, fixedNow, *med.EndDate)

		stored, err := env.repo.Clinical().GetMedication(ctx, "med-2")
		require.NoError(t, err)
		assert.Equal(t, models.MedicationStopped, stored.Status)

		published := env.publisher.EventsOfType(events.EventMedicationUpdated)
		require.Len(t, published, 1)
		assert.Equal(t, "stopped", published[0].Data.(events.MedicationUpdatedEvent).Action)
	})

	t.Run("stop twice", func(t *testing.T) {
		_, err := svc.StopMedication(ctx, doctor, "patient-1", "med-2")
		assert.ErrorIs(t, err, ErrMedicationNotActive)
		assert.True(t, IsConflict(err))
	})

	t.Run("wrong patient", func(t *testing.T) {
		_, err := svc.StopMedication(ctx, doctor, "patient-2", "med-1")
		assert.ErrorIs(t, err, ErrMedicationNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.AddMedication(ctx, doctor, &AddMedicationRequest{PatientID: "patient-1", Name: "X"})
		assert.True(t, IsValidation(err))
	})
}

func TestClinicalService_Appointments(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	appt, err := svc.ScheduleAppointment(ctx, doctor, &ScheduleAppointmentRequest{
		PatientID: "patient-3", Date: fixedNow.Add(14 * 24 * time.Hour), Type: "Follow-up",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, "doctor-1", appt.DoctorID)

	list, err := svc.ListAppointments(ctx, env.user(t, "patient-3"), "patient-3")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.ScheduleAppointment(ctx, doctor, &ScheduleAppointmentRequest{
		PatientID: "patient-3", Date: fixedNow.Add(-time.Hour), Type: "Follow-up",
	})
	assert.True(t, IsBusinessRule(err))
}

func TestClinicalService_RunDiagnostics(t *testing.T) {
	env := newTestEnv(t)
	svc := env.clinicalService()
	doctor := env.user(t, "doctor-1")
	ctx := context.Background()

	result, err := svc.RunDiagnostics(ctx, doctor, &DiagnosticsRequest{
		PatientID: "patient-1", MRIFileName: "brain.dcm", CDRScore: ptr(0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, defaultMMSEScore, result.MMSEScore)
	assert.Equal(t, "Alzheimer's Disease", result.PrimaryDiagnosis.Name)
	assert.Len(t, result.Probabilities, 3)
	assert.Len(t, result.MRIFindings, 3)
	assert.Len(t, result.Recommendations, 5)

	kind := models.EventTypeDiagnosis
	timeline, err := env.patientService().Timeline(ctx, doctor, "patient-1", &kind)
	require.NoError(t, err)
	assert.Len(t, timeline, 1)

	tests := []struct {
		name string
		req  *DiagnosticsRequest
	}{
		{"missing cdr", &DiagnosticsRequest{PatientID: "patient-1", MRIFileName: "brain.dcm"}},
		{"cdr off scale", &DiagnosticsRequest{PatientID: "patient-1", MRIFileName: "brain.dcm", CDRScore: ptr(0.7)}},
		{"mmse above 30", &DiagnosticsRequest{PatientID: "patient-1", MRIFileName: "brain.dcm", CDRScore: ptr(1.0), MMSEScore: ptr(31)}},
		{"missing mri", &DiagnosticsRequest{PatientID: "patient-1", CDRScore: ptr(1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunDiagnostics(ctx, doctor, tt.req)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}
