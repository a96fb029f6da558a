package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/audio"
	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/events"
	"github.com/neurosense/assessment-service/internal/repositories/memory"
	"github.com/neurosense/assessment-service/internal/services"
	"github.com/neurosense/assessment-service/internal/speech"
	"github.com/neurosense/assessment-service/internal/utils"
)

// stubTranscriber returns the queued transcriptions in order, then err.
type stubTranscriber struct {
	mu      sync.Mutex
	results []string
	err     error
	clips   []audio.Payload
}

func (s *stubTranscriber) Name() string { return "stub" }

func (s *stubTranscriber) Transcribe(_ context.Context, clip audio.Payload) (speech.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = append(s.clips, clip)
	if len(s.results) == 0 {
		if s.err != nil {
			return speech.Transcription{}, s.err
		}
		return speech.Transcription{}, speech.ErrNotConfigured
	}
	text := s.results[0]
	s.results = s.results[1:]
	return speech.Transcription{Text: text, Provider: "stub"}, nil
}

func (s *stubTranscriber) lastClip() audio.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clips) == 0 {
		return audio.Payload{}
	}
	return s.clips[len(s.clips)-1]
}

type testServer struct {
	router    *gin.Engine
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	stt       *stubTranscriber
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testServer{
		repo:      memory.NewSeeded(),
		publisher: events.NewMockEventPublisher(slogger),
		stt:       &stubTranscriber{},
	}

	manager := services.NewServiceManager(services.Dependencies{
		Repo:        ts.repo,
		Cache:       cache.NewMemoryCache(),
		Publisher:   ts.publisher,
		Transcriber: ts.stt,
		Logger:      slogger,
		Voice: services.VoiceConfig{
			Lang:          "kn",
			AutoPlayDelay: 10 * time.Millisecond,
			AdvanceDelay:  10 * time.Millisecond,
		},
	})

	router := gin.New()
	router.Use(utils.ContextLogger(utils.NewNopLogger()))
	NewHandlerManager(manager, VoiceSocketConfig{SpeechLang: "kn-IN"}, utils.NewNopLogger()).SetupRoutes(router)
	ts.router = router
	return ts
}

// do performs a request as userID ("" for anonymous) with an optional JSON body.
func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
