package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/extractor"
	"github.com/neurosense/assessment-service/internal/questionnaire"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/validator"
)

var ErrSynthesisNotConfigured = errors.New("no speech synthesis provider configured")

type speechService struct {
	stt       speech.Transcriber
	synth     speech.Synthesizer
	q         *questionnaire.Questionnaire
	extractor *extractor.Extractor
	logger    *ServiceLogger
	validator *validator.Validator
}

// NewSpeechService exposes the relay, remote synthesis and answer extraction.
// synth may be nil when prompts are spoken on the client.
func NewSpeechService(
	stt speech.Transcriber,
	synth speech.Synthesizer,
	q *questionnaire.Questionnaire,
	logger *slog.Logger,
	validator *validator.Validator,
) SpeechService {
	return &speechService{
		stt:       stt,
		synth:     synth,
		q:         q,
		extractor: extractor.New(q),
		logger:    NewServiceLogger(logger, LogConfig{Service: "speech", Component: "service"}),
		validator: validator,
	}
}

func (s *speechService) Transcribe(ctx context.Context, req *TranscribeRequest) (*speech.Transcription, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	mime := req.MIMEType
	if mime == "" {
		mime = audio.MIMEWebM
	}
	clip, err := audio.DecodeBase64(req.Audio, mime)
	if err != nil {
		return nil, NewValidationError("audio", err.Error(), nil)
	}

	result, err := s.stt.Transcribe(ctx, clip)
	if err != nil {
		s.logger.Logger().Error("Transcription failed", "mime_type", clip.MIMEType, "bytes", len(clip.Data), "error", err)
		return nil, err
	}
	s.logger.Logger().Info("Transcription completed", "provider", result.Provider)
	return &result, nil
}

func (s *speechService) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if s.synth == nil {
		return nil, ErrSynthesisNotConfigured
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clip, err := s.synth.Synthesize(ctx, req.Text)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return &SynthesizeResponse{AudioContent: clip.Base64(), MIMEType: clip.MIMEType}, nil
}

func (s *speechService) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.q.Field(req.Field); err != nil {
		return nil, NewValidationError("field", "is not a questionnaire field", req.Field)
	}
	answer, ok := s.extractor.Extract(req.Text, req.Field)
	resp := &ExtractResponse{Field: req.Field, Matched: ok}
	if ok {
		resp.Value = answer.Value
	}
	return resp, nil
}
