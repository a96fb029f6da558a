// Package fixtures holds the demo data the service starts with.
package fixtures

import (
	"time"

	"github.com/neurosense/assessment-service/internal/models"
)

// DemoPassword is accepted for every demo account.
const DemoPassword = "Demo123!"

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// Data is a full set of demo records.
type Data struct {
	Users        []models.User
	Assessments  []models.Assessment
	HealthEvents []models.HealthEvent
	Notes        []models.ClinicalNote
	Medications  []models.Medication
	Appointments []models.Appointment
}

// Load returns a fresh copy that callers may mutate.
func Load() *Data {
	return &Data{
		Users:        users(),
		Assessments:  assessments(),
		HealthEvents: healthEvents(),
		Notes:        notes(),
		Medications:  medications(),
		Appointments: appointments(),
	}
}

func users() []models.User {
	return []models.User{
		{ID: "patient-1", Email: "john@example.com", Password: DemoPassword, Role: models.RolePatient,
			FirstName: "John", LastName: "Smith", Phone: ptr("+1-555-0101"), Age: ptr(68), Gender: ptr("Male"),
			BloodType: ptr("A+"), DoctorID: ptr("doctor-1")},
		{ID: "patient-2", Email: "jane@example.com", Password: DemoPassword, Role: models.RolePatient,
			FirstName: "Jane", LastName: "Doe", Phone: ptr("+1-555-0102"), Age: ptr(72), Gender: ptr("Female"),
			BloodType: ptr("O+"), DoctorID: ptr("doctor-1")},
		{ID: "patient-3", Email: "robert@example.com", Password: DemoPassword, Role: models.RolePatient,
			FirstName: "Robert", LastName: "Johnson", Phone: ptr("+1-555-0103"), Age: ptr(65), Gender: ptr("Male"),
			BloodType: ptr("B+"), DoctorID: ptr("doctor-2")},
		{ID: "doctor-1", Email: "alice@hospital.com", Password: DemoPassword, Role: models.RoleDoctor,
			FirstName: "Dr. Alice", LastName: "Williams", Phone: ptr("+1-555-0201"), Specialty: ptr("Neurology")},
		{ID: "doctor-2", Email: "bob@hospital.com", Password: DemoPassword, Role: models.RoleDoctor,
			FirstName: "Dr. Bob", LastName: "Martinez", Phone: ptr("+1-555-0202"), Specialty: ptr("Geriatric Medicine")},
	}
}

func scores(day string, alz, alzConf, park, parkConf, dem, demConf int) []models.RiskScore {
	d := date(day)
	return []models.RiskScore{
		{Disease: models.DiseaseAlzheimers, Score: alz, Confidence: alzConf, Level: LevelFor(alz), LastUpdated: d},
		{Disease: models.DiseaseParkinsons, Score: park, Confidence: parkConf, Level: LevelFor(park), LastUpdated: d},
		{Disease: models.DiseaseDementia, Score: dem, Confidence: demConf, Level: LevelFor(dem), LastUpdated: d},
	}
}

// LevelFor buckets a 0-100 score: 60 and above is high, 35 and above is
// moderate, anything lower is low.
func LevelFor(score int) models.RiskLevel {
	switch {
	case score >= 60:
		return models.RiskHigh
	case score >= 35:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

func assessments() []models.Assessment {
	return []models.Assessment{
		{
			ID: "assessment-1", PatientID: "patient-1", Date: date("2024-01-15"), Status: models.StatusCompleted,
			RiskScores: scores("2024-01-15", 72, 85, 35, 78, 68, 82),
			AIInterpretation: "The assessment indicates elevated risk for Alzheimer's disease and general dementia. " +
				"Key contributing factors include family history, age, and reported cognitive symptoms. " +
				"Immediate medical consultation is recommended.",
			DoctorNotes: "Patient showing early signs of memory impairment. Recommend cognitive testing and MRI scan.",
			Recommendations: []string{
				"Schedule comprehensive neurological evaluation",
				"Consider MRI brain scan",
				"Implement cognitive exercises daily",
				"Monitor medication compliance",
				"Follow Mediterranean diet",
			},
			TopRiskFactors: []models.RiskFactor{
				{Factor: "Family History of Alzheimer's", Impact: 95},
				{Factor: "Age (68 years)", Impact: 88},
				{Factor: "Memory Complaints", Impact: 82},
				{Factor: "APOE ε4 Carrier", Impact: 78},
				{Factor: "Low Physical Activity", Impact: 65},
			},
		},
		{
			ID: "assessment-2", PatientID: "patient-2", Date: date("2024-01-10"), Status: models.StatusCompleted,
			RiskScores:       scores("2024-01-10", 45, 80, 25, 75, 38, 77),
			AIInterpretation: "Moderate risk profile with manageable factors. Lifestyle modifications and regular monitoring recommended.",
			Recommendations: []string{
				"Continue regular physical activity",
				"Maintain social engagement",
				"Annual cognitive screening",
				"Heart-healthy diet",
			},
			TopRiskFactors: []models.RiskFactor{
				{Factor: "Age (72 years)", Impact: 85},
				{Factor: "Hypertension", Impact: 62},
				{Factor: "Occasional Memory Lapses", Impact: 58},
				{Factor: "Sleep Quality", Impact: 45},
				{Factor: "Stress Level", Impact: 42},
			},
		},
		{
			ID: "assessment-3", PatientID: "patient-3", Date: date("2024-01-20"), Status: models.StatusCompleted,
			RiskScores: scores("2024-01-20", 28, 83, 52, 79, 30, 81),
			AIInterpretation: "Overall low-to-moderate risk profile. Motor symptoms warrant monitoring for " +
				"Parkinson's progression. Continue preventive care.",
			Recommendations: []string{
				"Physical therapy for mobility",
				"Regular exercise program",
				"Medication review",
				"Stress management techniques",
			},
			TopRiskFactors: []models.RiskFactor{
				{Factor: "Tremor Symptoms", Impact: 78},
				{Factor: "Family History", Impact: 55},
				{Factor: "Age (65 years)", Impact: 72},
				{Factor: "Reduced Mobility", Impact: 48},
				{Factor: "Medication Interactions", Impact: 38},
			},
		},
	}
}

func healthEvents() []models.HealthEvent {
	return []models.HealthEvent{
		{ID: "event-1", PatientID: "patient-1", Date: date("2024-01-15"), Type: models.EventTypeAssessment,
			Title: "Neurological Risk Assessment Completed", Description: "Comprehensive assessment showing elevated Alzheimer's risk",
			Severity: ptr(models.RiskHigh), Disease: ptr(string(models.DiseaseAlzheimers))},
		{ID: "event-2", PatientID: "patient-1", Date: date("2024-01-10"), Type: models.EventTypeNote,
			Title: "Doctor's Note Added", Description: "Recommended MRI scan and cognitive testing", Severity: ptr(models.RiskModerate)},
		{ID: "event-3", PatientID: "patient-1", Date: date("2023-12-20"), Type: models.EventTypeMedication,
			Title: "Medication Updated", Description: "Started Donepezil 5mg daily", Severity: ptr(models.RiskLow)},
		{ID: "event-4", PatientID: "patient-1", Date: date("2023-12-01"), Type: models.EventTypeAssessment,
			Title: "Initial Screening", Description: "Baseline cognitive assessment completed", Severity: ptr(models.RiskModerate)},
		{ID: "event-5", PatientID: "patient-1", Date: date("2023-11-15"), Type: models.EventTypeFollowUp,
			Title: "Follow-up Appointment", Description: "Regular check-up with neurologist", Severity: ptr(models.RiskLow)},
	}
}

func notes() []models.ClinicalNote {
	const alice = "Dr. Alice Williams"
	return []models.ClinicalNote{
		{ID: "note-1", PatientID: "patient-1", DoctorID: "doctor-1", DoctorName: alice, Date: date("2024-01-15"),
			NoteType: models.NoteAssessment,
			Content: "Patient presents with increasing memory difficulties over the past 6 months. Family reports " +
				"difficulty with word-finding and occasional confusion with familiar tasks. Physical exam unremarkable. " +
				"Recommend comprehensive neuropsychological testing and brain MRI. Will discuss treatment options at next visit."},
		{ID: "note-2", PatientID: "patient-1", DoctorID: "doctor-1", DoctorName: alice, Date: date("2024-01-10"),
			NoteType: models.NoteFollowUp,
			Content: "Reviewed latest assessment results with patient and family. Discussed lifestyle modifications " +
				"including increased physical activity, Mediterranean diet, and cognitive exercises. Patient is motivated " +
				"and understands the importance of early intervention."},
		{ID: "note-3", PatientID: "patient-1", DoctorID: "doctor-1", DoctorName: alice, Date: date("2023-12-20"),
			NoteType: models.NoteIntervention,
			Content: "Initiated pharmacological intervention with Donepezil 5mg daily. Explained potential side effects " +
				"and importance of medication compliance. Will monitor response over next 3 months. Family support system appears strong."},
	}
}

func medications() []models.Medication {
	alice := ptr("Dr. Alice Williams")
	return []models.Medication{
		{ID: "med-1", PatientID: "patient-1", Name: "Donepezil", Dosage: "5mg", Frequency: "Once daily",
			StartDate: date("2023-12-20"), Status: models.MedicationActive, PrescribedBy: alice},
		{ID: "med-2", PatientID: "patient-1", Name: "Memantine", Dosage: "10mg", Frequency: "Twice daily",
			StartDate: date("2024-01-05"), Status: models.MedicationActive, PrescribedBy: alice},
		{ID: "med-3", PatientID: "patient-1", Name: "Vitamin D", Dosage: "1000 IU", Frequency: "Once daily",
			StartDate: date("2023-11-01"), Status: models.MedicationActive, PrescribedBy: alice},
		{ID: "med-4", PatientID: "patient-1", Name: "Omega-3 Fatty Acids", Dosage: "1200mg", Frequency: "Once daily",
			StartDate: date("2023-11-01"), Status: models.MedicationActive},
	}
}

func appointments() []models.Appointment {
	return []models.Appointment{
		{ID: "appointment-1", PatientID: "patient-1", DoctorID: "doctor-1", Date: date("2024-02-15"),
			Type: "Follow-up", Status: models.AppointmentScheduled, Notes: ptr("Review MRI results")},
		{ID: "appointment-2", PatientID: "patient-1", DoctorID: "doctor-1", Date: date("2023-11-15"),
			Type: "Check-up", Status: models.AppointmentCompleted},
	}
}
