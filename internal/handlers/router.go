package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
)

// VoiceSocketConfig selects where voice-session prompts are synthesized.
// With a nil Synthesizer the client speaks them in SpeechLang.
type VoiceSocketConfig struct {
	Synthesizer speech.Synthesizer
	SpeechLang  string
}

type HandlerManager struct {
	authService services.AuthService

	authHandler          *AuthHandler
	questionnaireHandler *QuestionnaireHandler
	patientHandler       *PatientHandler
	assessmentHandler    *AssessmentHandler
	clinicalHandler      *ClinicalHandler
	speechHandler        *SpeechHandler
	voiceHandler         *VoiceHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	voiceConfig VoiceSocketConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authService:          serviceManager.Auth(),
		authHandler:          NewAuthHandler(serviceManager.Auth(), logger),
		questionnaireHandler: NewQuestionnaireHandler(serviceManager.Questionnaire(), logger),
		patientHandler:       NewPatientHandler(serviceManager.Patient(), serviceManager.Export(), logger),
		assessmentHandler:    NewAssessmentHandler(serviceManager.Assessment(), logger),
		clinicalHandler:      NewClinicalHandler(serviceManager.Clinical(), logger),
		speechHandler:        NewSpeechHandler(serviceManager.Speech(), logger),
		voiceHandler:         NewVoiceHandler(serviceManager.Voice(), voiceConfig.Synthesizer, voiceConfig.SpeechLang, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", hm.authHandler.Login)

	authed := v1.Group("", MockAuth(hm.authService))
	doctorOnly := RequireRole(models.RoleDoctor)
	{
		authed.GET("/auth/me", hm.authHandler.Me)
		authed.GET("/questionnaire", hm.questionnaireHandler.GetQuestionnaire)

		// Speech routes
		speechRoutes := authed.Group("/speech")
		{
			speechRoutes.POST("/transcribe", hm.speechHandler.Transcribe)
			speechRoutes.POST("/synthesize", hm.speechHandler.Synthesize)
			speechRoutes.POST("/extract", hm.speechHandler.Extract)
		}

		authed.GET("/voice/ws", hm.voiceHandler.ServeWS)

		// Patient routes
		patients := authed.Group("/patients")
		{
			patients.GET("", doctorOnly, hm.patientHandler.ListPatients)
			patients.GET("/:id", hm.patientHandler.GetPatient)
			patients.GET("/:id/dashboard", hm.patientHandler.GetDashboard)
			patients.GET("/:id/timeline", hm.patientHandler.GetTimeline)
			patients.GET("/:id/report.xlsx", doctorOnly, hm.patientHandler.DownloadReport)

			// Assessments
			patients.GET("/:id/assessments", hm.assessmentHandler.ListAssessments)
			patients.POST("/:id/assessments", hm.assessmentHandler.SubmitAssessment)

			// Clinical records
			patients.GET("/:id/notes", hm.clinicalHandler.ListNotes)
			patients.POST("/:id/notes", doctorOnly, hm.clinicalHandler.AddNote)
			patients.GET("/:id/medications", hm.clinicalHandler.ListMedications)
			patients.POST("/:id/medications", doctorOnly, hm.clinicalHandler.AddMedication)
			patients.POST("/:id/medications/:med_id/stop", doctorOnly, hm.clinicalHandler.StopMedication)
			patients.GET("/:id/appointments", hm.clinicalHandler.ListAppointments)
			patients.POST("/:id/appointments", doctorOnly, hm.clinicalHandler.ScheduleAppointment)
			patients.POST("/:id/diagnostics", doctorOnly, hm.clinicalHandler.RunDiagnostics)
		}

		authed.GET("/assessments/:id", hm.assessmentHandler.GetAssessment)
		authed.GET("/doctors/dashboard", doctorOnly, hm.patientHandler.GetDoctorDashboard)
	}
}
