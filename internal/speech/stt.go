// Package speech holds the speech-to-text and text-to-speech clients used by
// voice assessments.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/neurosense/assessment-service/internal/audio"
)

const defaultHTTPTimeout = 30 * time.Second

var ErrNotConfigured = errors.New("no API keys configured for speech-to-text")

// Transcription is recognised text and the provider that produced it.
type Transcription struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, p audio.Payload) (Transcription, error)
}

// ProviderError is a non-success response from a remote speech provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
