package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neurosense/assessment-service/internal/audio"
)

// Relay tries each configured transcriber once, in order, and returns the
// first success.
type Relay struct {
	providers []Transcriber
	logger    *slog.Logger
}

// NewRelay builds a relay over the non-nil providers, primary first.
func NewRelay(logger *slog.Logger, providers ...Transcriber) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{logger: logger}
	for _, p := range providers {
		if p != nil {
			r.providers = append(r.providers, p)
		}
	}
	return r
}

func (r *Relay) Name() string { return "relay" }

// Configured reports whether at least one provider is available.
func (r *Relay) Configured() bool {
	return len(r.providers) > 0
}

func (r *Relay) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

func (r *Relay) Transcribe(ctx context.Context, p audio.Payload) (Transcription, error) {
	if p.Empty() {
		return Transcription{}, audio.ErrEmptyPayload
	}
	if len(r.providers) == 0 {
		return Transcription{}, ErrNotConfigured
	}

	var errs []error
	for i, provider := range r.providers {
		r.logger.Info("attempting transcription", "provider", provider.Name(), "attempt", i+1, "bytes", len(p.Data))

		result, err := provider.Transcribe(ctx, p)
		if err == nil {
			r.logger.Info("transcription successful", "provider", result.Provider)
			return result, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
		if ctx.Err() != nil {
			break
		}
		if i < len(r.providers)-1 {
			r.logger.Warn("transcription failed, attempting fallback", "provider", provider.Name(), "error", err)
		} else {
			r.logger.Error("transcription failed", "provider", provider.Name(), "error", err)
		}
	}
	return Transcription{}, fmt.Errorf("speech-to-text failed: %w", errors.Join(errs...))
}
