package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/config"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/repositories/memory"
	"github.com/neurosense/assessment-service/internal/repositories/postgres"
	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
	"github.com/neurosense/assessment-service/pkg"
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg       *config.Config
	logger    utils.Logger
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	relay     *speech.Relay
	synth     speech.Synthesizer
	services  services.ServiceManager

	closers []func() error
}

func newLogger(cfg *config.Config, w io.Writer) utils.Logger {
	env := cfg.Environment
	if verbose {
		env = "development"
	}
	return utils.NewLogger(env, w)
}

// loadApp wires storage, cache, events and speech providers.
func loadApp(ctx context.Context, logWriter io.Writer) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg, logWriter)
	slogger := utils.ToSlogLogger(logger)
	a := &app{cfg: cfg, logger: logger}

	if a.repo, err = openRepository(ctx, cfg, slogger); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.repo.Close)

	cacheService, closeCache, err := pkg.NewCacheService(ctx, cfg, slogger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cacheService
	a.closers = append(a.closers, closeCache)

	if a.publisher, err = cfg.Events.CreateEventPublisher(slogger); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	a.closers = append(a.closers, a.publisher.Close)

	a.relay = newTranscriber(cfg, slogger)
	a.synth = newSynthesizer(cfg, a.cache, slogger)

	a.services = services.NewServiceManager(services.Dependencies{
		Repo:        a.repo,
		Cache:       a.cache,
		Publisher:   a.publisher,
		Transcriber: a.relay,
		Synthesizer: a.synth,
		Logger:      slogger,
		Voice: services.VoiceConfig{
			Lang:          promptLang(cfg.STTLanguage),
			AutoPlayDelay: cfg.VoiceAutoPlayDelay,
			AdvanceDelay:  cfg.VoiceAdvanceDelay,
		},
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Repository, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Info("Using in-memory store with demo data")
		return memory.NewSeeded(), nil
	}

	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := repo.Seed(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	logger.Info("Connected to PostgreSQL")
	return repo, nil
}

// newTranscriber tries Sarvam first and Whisper second; providers without a
// key are skipped.
func newTranscriber(cfg *config.Config, logger *slog.Logger) *speech.Relay {
	var providers []speech.Transcriber
	if cfg.SarvamAPIKey != "" {
		providers = append(providers, speech.NewSarvamTranscriber(speech.SarvamConfig{
			APIKey:   cfg.SarvamAPIKey,
			Language: cfg.STTLanguage,
		}))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, speech.NewWhisperTranscriber(speech.OpenAIConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Language: promptLang(cfg.STTLanguage),
		}))
	}

	relay := speech.NewRelay(logger, providers...)
	if !relay.Configured() {
		logger.Warn("No speech-to-text API keys configured; transcription requests will fail")
	}
	return relay
}

// newSynthesizer returns nil when the configured provider has no key.
func newSynthesizer(cfg *config.Config, c cache.CacheService, logger *slog.Logger) speech.Synthesizer {
	var synth speech.Synthesizer
	switch {
	case cfg.TTSProvider == speech.ProviderOpenAI && cfg.OpenAIAPIKey != "":
		synth = speech.NewOpenAISynthesizer(speech.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Voice: cfg.TTSSpeaker})
	case cfg.TTSProvider == speech.ProviderSarvam && cfg.SarvamAPIKey != "":
		synth = speech.NewSarvamSynthesizer(speech.SarvamConfig{
			APIKey:   cfg.SarvamAPIKey,
			Language: cfg.STTLanguage,
			Speaker:  cfg.TTSSpeaker,
		})
	default:
		logger.Info("Remote speech synthesis not configured", "provider", cfg.TTSProvider)
		return nil
	}
	return speech.NewCachedSynthesizer(synth, c, cfg.STTLanguage, cfg.TTSCacheTTL, logger)
}

// promptLang reduces a BCP-47 tag such as kn-IN to its language ("kn").
func promptLang(tag string) string {
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(lang)
}
