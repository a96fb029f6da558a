//go:build !portaudio
// +build !portaudio

package speech

import (
	"context"
	"errors"

	"github.com/neurosense/assessment-service/internal/audio"
)

// PortAudioSink stub when portaudio is not available
type PortAudioSink struct{}

func NewPortAudioSink() *PortAudioSink {
	return &PortAudioSink{}
}

func (p *PortAudioSink) Play(context.Context, audio.Payload) error {
	return errors.New("audio playback not available: rebuild with -tags portaudio")
}
