package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/cache"
)

// CachedSynthesizer stores synthesized prompts so each question is only
// synthesized once per language.
type CachedSynthesizer struct {
	next   Synthesizer
	cache  cache.CacheService
	lang   string
	ttl    time.Duration
	logger *slog.Logger
}

type cachedClip struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

func NewCachedSynthesizer(next Synthesizer, c cache.CacheService, lang string, ttl time.Duration, logger *slog.Logger) *CachedSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSynthesizer{next: next, cache: c, lang: lang, ttl: ttl, logger: logger}
}

func (s *CachedSynthesizer) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "tts:" + s.lang + ":" + hex.EncodeToString(sum[:])
}

func (s *CachedSynthesizer) Synthesize(ctx context.Context, text string) (audio.Payload, error) {
	key := s.Key(text)

	var hit cachedClip
	err := s.cache.Get(ctx, key, &hit)
	if err == nil && len(hit.Data) > 0 {
		return audio.Payload{Data: hit.Data, MIMEType: hit.MIMEType}, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("prompt cache lookup failed", "error", err)
	}

	clip, err := s.next.Synthesize(ctx, text)
	if err != nil {
		return audio.Payload{}, err
	}
	if err := s.cache.Set(ctx, key, cachedClip{Data: clip.Data, MIMEType: clip.MIMEType}, s.ttl); err != nil {
		s.logger.Warn("prompt cache store failed", "error", err)
	}
	return clip, nil
}
