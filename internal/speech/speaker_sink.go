//go:build portaudio
// +build portaudio

package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/neurosense/assessment-service/internal/audio"
)

// PortAudioSink plays WAV clips on the default output device.
type PortAudioSink struct {
	mu sync.Mutex
}

func NewPortAudioSink() *PortAudioSink {
	return &PortAudioSink{}
}

func (p *PortAudioSink) Play(ctx context.Context, clip audio.Payload) error {
	wav, err := audio.DecodeWAV(clip.Data)
	if err != nil {
		return fmt.Errorf("unsupported clip %s: %w", clip.MIMEType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	const bufferSize = 1024
	buffer := make([]float32, bufferSize*wav.Channels)

	stream, err := portaudio.OpenDefaultStream(0, wav.Channels, float64(wav.SampleRate), bufferSize, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(wav.Samples); pos += len(buffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range buffer {
			if pos+i < len(wav.Samples) {
				buffer[i] = float32(wav.Samples[pos+i]) / 32768.0
			} else {
				buffer[i] = 0
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}
	return nil
}
