//go:build !portaudio
// +build !portaudio

package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neurosense/assessment-service/internal/audio"
)

// Microphone stub when portaudio is not available
type Microphone struct {
	logger *slog.Logger
}

func NewMicrophone(logger *slog.Logger) *Microphone {
	return &Microphone{logger: logger}
}

func (m *Microphone) Acquire(_ context.Context, _ audio.Constraints) (Track, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags portaudio", ErrDeviceUnavailable)
}
