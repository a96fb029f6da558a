package services

import (
	"log/slog"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/validator"
)

// ServiceManager hands the HTTP layer every service.
type ServiceManager interface {
	Auth() AuthService
	Patient() PatientService
	Assessment() AssessmentService
	Clinical() ClinicalService
	Export() ExportService
	Speech() SpeechService
	Voice() VoiceService
	Questionnaire() *questionnaire.Questionnaire
}

type Dependencies struct {
	Repo          repositories.Repository
	Cache         cache.CacheService
	Publisher     events.EventPublisher
	Questionnaire *questionnaire.Questionnaire
	Transcriber   speech.Transcriber
	Synthesizer   speech.Synthesizer // nil when prompts are spoken on the client
	Logger        *slog.Logger
	Voice         VoiceConfig
}

type serviceManager struct {
	q          *questionnaire.Questionnaire
	auth       AuthService
	patient    PatientService
	assessment AssessmentService
	clinical   ClinicalService
	export     ExportService
	speech     SpeechService
	voice      VoiceService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Questionnaire == nil {
		deps.Questionnaire = questionnaire.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopCache()
	}
	v := validator.New(validator.NewFormValidator(deps.Questionnaire))

	assessments := NewAssessmentService(deps.Repo, deps.Publisher, deps.Cache, deps.Logger, v)
	return &serviceManager{
		q:          deps.Questionnaire,
		auth:       NewAuthService(deps.Repo, deps.Logger, v),
		patient:    NewPatientService(deps.Repo, deps.Cache, deps.Logger, v),
		assessment: assessments,
		clinical:   NewClinicalService(deps.Repo, deps.Publisher, deps.Logger, v),
		export:     NewExportService(deps.Repo, deps.Logger),
		speech:     NewSpeechService(deps.Transcriber, deps.Synthesizer, deps.Questionnaire, deps.Logger, v),
		voice:      NewVoiceService(deps.Questionnaire, deps.Transcriber, assessments, deps.Publisher, deps.Logger, deps.Voice),
	}
}

func (m *serviceManager) Auth() AuthService                           { return m.auth }
func (m *serviceManager) Patient() PatientService                     { return m.patient }
func (m *serviceManager) Assessment() AssessmentService               { return m.assessment }
func (m *serviceManager) Clinical() ClinicalService                   { return m.clinical }
func (m *serviceManager) Export() ExportService                       { return m.export }
func (m *serviceManager) Speech() SpeechService                       { return m.speech }
func (m *serviceManager) Voice() VoiceService                         { return m.voice }
func (m *serviceManager) Questionnaire() *questionnaire.Questionnaire { return m.q }
