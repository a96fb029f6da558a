// Package audio defines the audio payloads exchanged between capture,
// speech-to-text and playback.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	MIMEWebM = "audio/webm"
	MIMEWAV  = "audio/wav"
	MIMEMP3  = "audio/mpeg"
	MIMEPCM  = "audio/l16"

	DefaultSampleRate = 44100
)

var ErrEmptyPayload = errors.New("audio payload is empty")

// Payload is an encoded audio clip.
type Payload struct {
	Data     []byte
	MIMEType string
}

func (p Payload) Empty() bool {
	return len(p.Data) == 0
}

// Base64 returns the clip in the text form used on the wire.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Extension guesses a file extension for the payload's MIME type.
func (p Payload) Extension() string {
	mime := p.MIMEType
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch strings.TrimSpace(mime) {
	case MIMEWAV, "audio/x-wav", "audio/wave":
		return "wav"
	case MIMEMP3, "audio/mp3":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	default:
		return "webm"
	}
}

// DecodeBase64 decodes a base64 clip. A "data:<mime>;base64," prefix is
// accepted and, when present, overrides mime.
func DecodeBase64(s, mime string) (Payload, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(s, ",")
		if !ok {
			return Payload{}, errors.New("malformed data URL")
		}
		if m := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); m != "" {
			mime = m
		}
		s = body
	}
	if s == "" {
		return Payload{}, ErrEmptyPayload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some browsers strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return Payload{}, fmt.Errorf("invalid base64 audio: %w", err)
		}
	}
	if mime == "" {
		mime = MIMEWebM
	}
	return Payload{Data: data, MIMEType: mime}, nil
}

// Constraints are the capture settings requested from an input device.
type Constraints struct {
	EchoCancellation bool `json:"echo_cancellation"`
	NoiseSuppression bool `json:"noise_suppression"`
	SampleRate       int  `json:"sample_rate"`
}

func DefaultConstraints() Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		SampleRate:       DefaultSampleRate,
	}
}

// Format describes the chunks produced by a capture track. Raw PCM tracks
// use MIMEPCM and are wrapped as WAV when recording stops.
type Format struct {
	MIMEType   string `json:"mime_type"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func (f Format) IsPCM() bool {
	return f.MIMEType == MIMEPCM
}
