package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/events"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "STORE_DRIVER", "TTS_MODE", "VOICE_AUTOPLAY_DELAY", "VOICE_ADVANCE_DELAY", "SARVAM_API_KEY", "OPENAI_API_KEY", "EVENTS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, TTSModeClient, cfg.TTSMode)
	assert.Equal(t, "kn-IN", cfg.STTLanguage)
	assert.Equal(t, 500*time.Millisecond, cfg.VoiceAutoPlayDelay)
	assert.Equal(t, time.Second, cfg.VoiceAdvanceDelay)
	assert.Empty(t, cfg.SarvamAPIKey)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("VOICE_AUTOPLAY_DELAY", "250")
	t.Setenv("VOICE_ADVANCE_DELAY", "2s")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.VoiceAutoPlayDelay)
	assert.Equal(t, 2*time.Second, cfg.VoiceAdvanceDelay)
	assert.True(t, cfg.RedisEnabled)
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestEventConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := EventConfig{KafkaBrokers: "a:9092, b:9092,"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.GetKafkaBrokers())

	pub, err := c.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, pub)

	c = EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
	pub, err = c.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, pub)
}
