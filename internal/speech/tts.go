package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neurosense/assessment-service/internal/audio"
)

// DefaultRate is the speaking rate used for prompts, slightly slower than
// normal speech.
const DefaultRate = 0.9

var ErrEmptyPrompt = errors.New("no question available to read")

// Speaker reads a prompt aloud and returns once playback has finished or
// failed.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Voice is a synthesis voice offered by a local engine.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

type Utterance struct {
	Lang  string  `json:"lang"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate"`
}

// Engine is an on-device synthesis capability.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Say(ctx context.Context, text string, u Utterance) error
}

// SelectVoice returns the first voice whose language starts with the primary
// subtag of lang ("kn" for "kn-IN"). It falls back to the engine's default
// voice. ok is false when neither exists.
func SelectVoice(voices []Voice, lang string) (v Voice, ok bool) {
	prefix := strings.ToLower(lang)
	if i := strings.IndexAny(prefix, "-_"); i > 0 {
		prefix = prefix[:i]
	}
	if prefix != "" {
		for _, voice := range voices {
			if strings.HasPrefix(strings.ToLower(voice.Lang), prefix) {
				return voice, true
			}
		}
	}
	for _, voice := range voices {
		if voice.Default {
			return voice, true
		}
	}
	return Voice{}, false
}

// LocalSpeaker speaks through an on-device Engine.
type LocalSpeaker struct {
	engine Engine
	lang   string
	rate   float64
	logger *slog.Logger
}

func NewLocalSpeaker(engine Engine, lang string, logger *slog.Logger) *LocalSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalSpeaker{engine: engine, lang: lang, rate: DefaultRate, logger: logger}
}

func (s *LocalSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}

	u := Utterance{Lang: s.lang, Rate: s.rate}
	voices, err := s.engine.Voices(ctx)
	if err != nil {
		s.logger.Warn("voice list unavailable, using engine default", "error", err)
	}
	if voice, ok := SelectVoice(voices, s.lang); ok {
		u.Voice = voice.Name
	}

	s.logger.Debug("speaking prompt", "lang", u.Lang, "voice", u.Voice)
	if err := s.engine.Say(ctx, text, u); err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// Synthesizer turns text into an encoded clip through a remote service.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (audio.Payload, error)
}

// Sink plays an encoded clip and returns when playback ends.
type Sink interface {
	Play(ctx context.Context, clip audio.Payload) error
}

// RemoteSpeaker synthesizes each prompt remotely and plays it on a Sink.
type RemoteSpeaker struct {
	synth  Synthesizer
	sink   Sink
	logger *slog.Logger
}

func NewRemoteSpeaker(synth Synthesizer, sink Sink, logger *slog.Logger) *RemoteSpeaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteSpeaker{synth: synth, sink: sink, logger: logger}
}

func (s *RemoteSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}

	clip, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		s.logger.Error("prompt synthesis failed", "error", err)
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	if err := s.sink.Play(ctx, clip); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
