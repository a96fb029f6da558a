package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/voice"
)

type VoiceConfig struct {
	Lang          string
	AutoPlayDelay time.Duration
	AdvanceDelay  time.Duration
}

type voiceService struct {
	q           *questionnaire.Questionnaire
	stt         speech.Transcriber
	assessments AssessmentService
	publisher   events.EventPublisher
	logger      *slog.Logger
	config      VoiceConfig
}

func NewVoiceService(
	q *questionnaire.Questionnaire,
	stt speech.Transcriber,
	assessments AssessmentService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	config VoiceConfig,
) VoiceService {
	return &voiceService{
		q:           q,
		stt:         stt,
		assessments: assessments,
		publisher:   publisher,
		logger:      logger.With("service", "voice", "component", "service"),
		config:      config,
	}
}

// NewSession builds a controller for one connection. A patient caller always
// answers for themselves.
func (s *voiceService) NewSession(ctx context.Context, caller *models.User, req *VoiceSessionRequest) (*VoiceSession, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	patientID := req.PatientID
	if caller.IsPatient() {
		patientID = caller.ID
	}
	if patientID != "" && !canAccessPatient(caller, patientID) {
		return nil, NewPermissionError(caller.ID, patientID, "voice_session", "create", "not the patient or their doctor")
	}

	lang := req.Lang
	if lang == "" {
		lang = s.config.Lang
	}
	sessionID := newID("voice")
	logger := s.logger.With("session_id", sessionID, "patient_id", patientID)

	controller, err := voice.NewController(voice.Options{
		Questionnaire: s.q,
		Speaker:       req.Speaker,
		Recorder:      req.Recorder,
		Transcriber:   s.stt,
		Observer:      req.Observer,
		Scheduler:     req.Scheduler,
		Logger:        logger,
		Lang:          lang,
		AutoPlayDelay: s.config.AutoPlayDelay,
		AdvanceDelay:  s.config.AdvanceDelay,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Voice session started", "lang", lang)
	return &VoiceSession{
		Controller:  controller,
		id:          sessionID,
		patientID:   patientID,
		caller:      caller,
		assessments: s.assessments,
		publisher:   s.publisher,
		logger:      logger,
	}, nil
}

// VoiceSession is a voice.Controller bound to a patient. Completed sections
// are published and the collected form can be submitted as an assessment.
type VoiceSession struct {
	*voice.Controller

	id          string
	patientID   string
	caller      *models.User
	assessments AssessmentService
	publisher   events.EventPublisher
	logger      *slog.Logger
}

func (s *VoiceSession) ID() string        { return s.id }
func (s *VoiceSession) PatientID() string { return s.patientID }

func (s *VoiceSession) StopAnswer(ctx context.Context) (*voice.Outcome, error) {
	outcome, err := s.Controller.StopAnswer(ctx)
	if err != nil || !outcome.SectionComplete {
		return outcome, err
	}

	event := events.NewVoiceSectionCompletedEvent(events.VoiceSectionCompletedEvent{
		SessionID: s.id,
		PatientID: s.patientID,
		Page:      outcome.Page,
		Answered:  models.AnsweredCount(s.Form()),
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish section completed event", "page", outcome.Page, "error", err)
	}
	return outcome, nil
}

// Submit stores the collected answers as a new assessment.
func (s *VoiceSession) Submit(ctx context.Context) (*models.Assessment, error) {
	if s.patientID == "" {
		return nil, NewBusinessRuleError("patient_required", "voice session has no patient to submit for", nil)
	}
	return s.assessments.Submit(ctx, s.caller, s.patientID, s.Form())
}

func (s *VoiceSession) Close() {
	s.Controller.Close()
	s.logger.Info("Voice session closed")
}
