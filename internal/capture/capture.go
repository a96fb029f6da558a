// Package capture records a single spoken answer from an input device.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/neurosense/assessment-service/internal/audio"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("no microphone available")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrEmptyRecording    = errors.New("recording contains no audio")
)

// Device grants access to an audio input.
type Device interface {
	Acquire(ctx context.Context, c audio.Constraints) (Track, error)
}

// Track is a live input stream. Chunks is closed once Stop has released the
// device. Stop must be safe to call more than once.
type Track interface {
	Chunks() <-chan []byte
	Format() audio.Format
	Stop()
}

// Recorder turns one start/stop cycle on a Device into an audio payload.
type Recorder struct {
	device      Device
	constraints audio.Constraints
	logger      *slog.Logger

	mu     sync.Mutex
	active *session
}

type session struct {
	track Track
	buf   bytes.Buffer
	done  chan struct{}
}

func NewRecorder(device Device, constraints audio.Constraints, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		device:      device,
		constraints: constraints,
		logger:      logger,
	}
}

// Start acquires the device and begins buffering audio.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrAlreadyRecording
	}

	track, err := r.device.Acquire(ctx, r.constraints)
	if err != nil {
		r.logger.Error("microphone acquisition failed", "error", err)
		return fmt.Errorf("failed to start recording: %w", err)
	}

	s := &session{track: track, done: make(chan struct{})}
	r.active = s
	go s.collect()

	r.logger.Debug("recording started", "format", track.Format().MIMEType)
	return nil
}

// collect owns buf until done is closed.
func (s *session) collect() {
	defer close(s.done)
	for chunk := range s.track.Chunks() {
		s.buf.Write(chunk)
	}
}

// Stop releases the device and returns the recorded clip. The device is
// released even when Stop returns an error.
func (r *Recorder) Stop(ctx context.Context) (audio.Payload, error) {
	r.mu.Lock()
	s := r.active
	r.active = nil
	r.mu.Unlock()

	if s == nil {
		return audio.Payload{}, ErrNotRecording
	}

	s.track.Stop()

	select {
	case <-s.done:
	case <-ctx.Done():
		return audio.Payload{}, fmt.Errorf("waiting for buffered audio: %w", ctx.Err())
	}

	data := s.buf.Bytes()

	if len(data) == 0 {
		return audio.Payload{}, ErrEmptyRecording
	}

	format := s.track.Format()
	if format.IsPCM() {
		r.logger.Debug("recording stopped", "bytes", len(data), "sample_rate", format.SampleRate)
		return audio.Payload{
			Data:     audio.EncodeWAV(data, format.SampleRate, format.Channels),
			MIMEType: audio.MIMEWAV,
		}, nil
	}

	mime := format.MIMEType
	if mime == "" {
		mime = audio.MIMEWebM
	}
	r.logger.Debug("recording stopped", "bytes", len(data), "mime_type", mime)
	return audio.Payload{Data: data, MIMEType: mime}, nil
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}
