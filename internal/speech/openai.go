package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/neurosense/assessment-service/internal/audio"
)

const (
	ProviderOpenAI = "openai"

	openAIBaseURL = "https://api.openai.com/v1"
)

type OpenAIConfig struct {
	APIKey   string
	Language string // ISO-639-1, e.g. kn
	Voice    string
	BaseURL  string
	Client   *http.Client
}

// WhisperTranscriber calls the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client
}

func NewWhisperTranscriber(cfg OpenAIConfig) *WhisperTranscriber {
	return &WhisperTranscriber{
		apiKey:     cfg.APIKey,
		language:   orDefault(cfg.Language, "kn"),
		baseURL:    orDefault(cfg.BaseURL, openAIBaseURL),
		httpClient: newHTTPClient(cfg.Client),
	}
}

func (c *WhisperTranscriber) Name() string { return ProviderOpenAI }

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *WhisperTranscriber) Transcribe(ctx context.Context, p audio.Payload) (Transcription, error) {
	body, contentType, err := audioForm(p, [][2]string{
		{"model", "whisper-1"},
		{"language", c.language},
	})
	if err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return Transcription{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return Transcription{}, &ProviderError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Transcription{}, fmt.Errorf("decoding response: %w", err)
	}
	return Transcription{Text: result.Text, Provider: ProviderOpenAI}, nil
}

// OpenAISynthesizer calls the OpenAI speech endpoint and asks for WAV output.
type OpenAISynthesizer struct {
	apiKey     string
	voice      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAISynthesizer(cfg OpenAIConfig) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		apiKey:     cfg.APIKey,
		voice:      orDefault(cfg.Voice, "alloy"),
		baseURL:    orDefault(cfg.BaseURL, openAIBaseURL),
		httpClient: newHTTPClient(cfg.Client),
	}
}

func (c *OpenAISynthesizer) Name() string { return ProviderOpenAI }

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

func (c *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (audio.Payload, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "wav",
		Speed:          DefaultRate,
	})
	if err != nil {
		return audio.Payload{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return audio.Payload{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return audio.Payload{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return audio.Payload{}, &ProviderError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Payload{}, fmt.Errorf("reading audio: %w", err)
	}
	return audio.Payload{Data: data, MIMEType: audio.MIMEWAV}, nil
}
