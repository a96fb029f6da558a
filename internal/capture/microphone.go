//go:build portaudio
// +build portaudio

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/neurosense/assessment-service/internal/audio"
)

const framesPerBuffer = 1024

// Microphone is the default PortAudio input device.
type Microphone struct {
	logger *slog.Logger
}

func NewMicrophone(logger *slog.Logger) *Microphone {
	return &Microphone{logger: logger}
}

func (m *Microphone) Acquire(_ context.Context, c audio.Constraints) (Track, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initializing portaudio: %v", ErrDeviceUnavailable, err)
	}

	rate := c.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(rate), framesPerBuffer, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: opening stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: starting stream: %v", ErrDeviceUnavailable, err)
	}

	// PortAudio has no echo cancellation or noise suppression of its own.
	m.logger.Info("microphone started",
		"sampleRate", rate,
		"echoCancellation", c.EchoCancellation,
		"noiseSuppression", c.NoiseSuppression)

	t := &micTrack{
		stream: stream,
		buffer: buffer,
		format: audio.Format{MIMEType: audio.MIMEPCM, SampleRate: rate, Channels: 1},
		chunks: make(chan []byte, 64),
		quit:   make(chan struct{}),
		logger: m.logger,
	}
	go t.loop()
	return t, nil
}

type micTrack struct {
	stream *portaudio.Stream
	buffer []int16
	format audio.Format
	chunks chan []byte
	quit   chan struct{}
	logger *slog.Logger
	once   sync.Once
}

func (t *micTrack) loop() {
	defer func() {
		t.stream.Stop()
		t.stream.Close()
		portaudio.Terminate()
		close(t.chunks)
	}()

	for {
		select {
		case <-t.quit:
			return
		default:
		}

		if err := t.stream.Read(); err != nil {
			t.logger.Warn("microphone read failed", "error", err)
			continue
		}
		t.chunks <- audio.Int16ToPCM(t.buffer)
	}
}

func (t *micTrack) Chunks() <-chan []byte { return t.chunks }

func (t *micTrack) Format() audio.Format { return t.format }

func (t *micTrack) Stop() {
	t.once.Do(func() { close(t.quit) })
}
