package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/neurosense/assessment-service/internal/audio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var webmClip = audio.Payload{Data: []byte("fake-webm"), MIMEType: audio.MIMEWebM}

func TestSarvamTranscriber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/speech-to-text", r.URL.Path)
		assert.Equal(t, "sarvam-key", r.Header.Get("api-subscription-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "saarika:v2.5", r.FormValue("model"))
		assert.Equal(t, "kn-IN", r.FormValue("language_code"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.webm", header.Filename)
		assert.Equal(t, audio.MIMEWebM, header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "fake-webm", string(data))

		json.NewEncoder(w).Encode(map[string]string{"transcript": "ನನಗೆ 68 ವರ್ಷ"})
	}))
	defer server.Close()

	s := NewSarvamTranscriber(SarvamConfig{APIKey: "sarvam-key", BaseURL: server.URL})
	result, err := s.Transcribe(context.Background(), webmClip)

	require.NoError(t, err)
	assert.Equal(t, Transcription{Text: "ನನಗೆ 68 ವರ್ಷ", Provider: ProviderSarvam}, result)
}

func TestSarvamTranscriber_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewSarvamTranscriber(SarvamConfig{APIKey: "k", BaseURL: server.URL})
	_, err := s.Transcribe(context.Background(), webmClip)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Equal(t, ProviderSarvam, perr.Provider)
}

func TestTranscribers_AcceptAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"transcript":"hello","text":"hello"}`))
	}))
	defer server.Close()

	result, err := NewSarvamTranscriber(SarvamConfig{APIKey: "k", BaseURL: server.URL}).Transcribe(context.Background(), webmClip)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)

	result, err = NewWhisperTranscriber(OpenAIConfig{APIKey: "k", BaseURL: server.URL}).Transcribe(context.Background(), webmClip)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)
}

func TestWhisperTranscriber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer openai-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "kn", r.FormValue("language"))

		json.NewEncoder(w).Encode(map[string]string{"text": "I am sixty eight"})
	}))
	defer server.Close()

	c := NewWhisperTranscriber(OpenAIConfig{APIKey: "openai-key", BaseURL: server.URL})
	result, err := c.Transcribe(context.Background(), webmClip)

	require.NoError(t, err)
	assert.Equal(t, "I am sixty eight", result.Text)
	assert.Equal(t, ProviderOpenAI, result.Provider)
}

type MockTranscriber struct {
	mock.Mock
	name string
}

func (m *MockTranscriber) Name() string { return m.name }

func (m *MockTranscriber) Transcribe(ctx context.Context, p audio.Payload) (Transcription, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Transcription), args.Error(1)
}

func TestRelay_PrimarySucceeds(t *testing.T) {
	primary := &MockTranscriber{name: ProviderSarvam}
	fallback := &MockTranscriber{name: ProviderOpenAI}
	primary.On("Transcribe", mock.Anything, webmClip).Return(Transcription{Text: "hello", Provider: ProviderSarvam}, nil).Once()

	relay := NewRelay(testLogger(), primary, fallback)
	result, err := relay.Transcribe(context.Background(), webmClip)

	require.NoError(t, err)
	assert.Equal(t, ProviderSarvam, result.Provider)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestRelay_FallbackAfterPrimaryFailure(t *testing.T) {
	primary := &MockTranscriber{name: ProviderSarvam}
	fallback := &MockTranscriber{name: ProviderOpenAI}
	primary.On("Transcribe", mock.Anything, webmClip).Return(Transcription{}, &ProviderError{Provider: ProviderSarvam, StatusCode: 500}).Once()
	fallback.On("Transcribe", mock.Anything, webmClip).Return(Transcription{Text: "hello", Provider: ProviderOpenAI}, nil).Once()

	relay := NewRelay(testLogger(), primary, fallback)
	result, err := relay.Transcribe(context.Background(), webmClip)

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, result.Provider)
	primary.AssertNumberOfCalls(t, "Transcribe", 1)
	fallback.AssertNumberOfCalls(t, "Transcribe", 1)
}

func TestRelay_BothFail(t *testing.T) {
	primary := &MockTranscriber{name: ProviderSarvam}
	fallback := &MockTranscriber{name: ProviderOpenAI}
	netErr := errors.New("connection refused")
	primary.On("Transcribe", mock.Anything, webmClip).Return(Transcription{}, netErr).Once()
	fallback.On("Transcribe", mock.Anything, webmClip).Return(Transcription{}, &ProviderError{Provider: ProviderOpenAI, StatusCode: 401, Body: "bad key"}).Once()

	relay := NewRelay(testLogger(), primary, fallback)
	_, err := relay.Transcribe(context.Background(), webmClip)

	require.Error(t, err)
	assert.ErrorIs(t, err, netErr)
	var perr *ProviderError
	assert.ErrorAs(t, err, &perr)
	primary.AssertNumberOfCalls(t, "Transcribe", 1)
	fallback.AssertNumberOfCalls(t, "Transcribe", 1)
}

func TestRelay_NotConfigured(t *testing.T) {
	relay := NewRelay(testLogger(), nil, nil)

	assert.False(t, relay.Configured())
	_, err := relay.Transcribe(context.Background(), webmClip)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRelay_EmptyPayload(t *testing.T) {
	relay := NewRelay(testLogger(), &MockTranscriber{name: ProviderSarvam})

	_, err := relay.Transcribe(context.Background(), audio.Payload{})
	assert.ErrorIs(t, err, audio.ErrEmptyPayload)
}

func TestRelay_Providers(t *testing.T) {
	relay := NewRelay(testLogger(), &MockTranscriber{name: ProviderSarvam}, nil, &MockTranscriber{name: ProviderOpenAI})
	assert.Equal(t, []string{ProviderSarvam, ProviderOpenAI}, relay.Providers())
}
