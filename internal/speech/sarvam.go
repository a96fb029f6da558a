package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/neurosense/assessment-service/internal/audio"
)

const (
	ProviderSarvam = "sarvam"

	sarvamBaseURL  = "https://api.sarvam.ai"
	sarvamSTTModel = "saarika:v2.5"
	sarvamTTSModel = "bulbul:v2"
)

type SarvamConfig struct {
	APIKey   string
	Language string // BCP-47, e.g. kn-IN
	Speaker  string
	BaseURL  string
	Client   *http.Client
}

// SarvamTranscriber calls the Sarvam AI speech-to-text API.
type SarvamTranscriber struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client
}

func NewSarvamTranscriber(cfg SarvamConfig) *SarvamTranscriber {
	return &SarvamTranscriber{
		apiKey:     cfg.APIKey,
		language:   orDefault(cfg.Language, "kn-IN"),
		baseURL:    orDefault(cfg.BaseURL, sarvamBaseURL),
		httpClient: newHTTPClient(cfg.Client),
	}
}

func (s *SarvamTranscriber) Name() string { return ProviderSarvam }

type sarvamTranscriptResponse struct {
	Transcript string `json:"transcript"`
}

func (s *SarvamTranscriber) Transcribe(ctx context.Context, p audio.Payload) (Transcription, error) {
	body, contentType, err := audioForm(p, [][2]string{
		{"model", sarvamSTTModel},
		{"language_code", s.language},
	})
	if err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/speech-to-text", body)
	if err != nil {
		return Transcription{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-subscription-key", s.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return Transcription{}, &ProviderError{Provider: ProviderSarvam, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result sarvamTranscriptResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Transcription{}, fmt.Errorf("decoding response: %w", err)
	}
	return Transcription{Text: result.Transcript, Provider: ProviderSarvam}, nil
}

// SarvamSynthesizer calls the Sarvam AI text-to-speech API.
type SarvamSynthesizer struct {
	apiKey     string
	language   string
	speaker    string
	baseURL    string
	httpClient *http.Client
}

func NewSarvamSynthesizer(cfg SarvamConfig) *SarvamSynthesizer {
	return &SarvamSynthesizer{
		apiKey:     cfg.APIKey,
		language:   orDefault(cfg.Language, "kn-IN"),
		speaker:    orDefault(cfg.Speaker, "anushka"),
		baseURL:    orDefault(cfg.BaseURL, sarvamBaseURL),
		httpClient: newHTTPClient(cfg.Client),
	}
}

func (s *SarvamSynthesizer) Name() string { return ProviderSarvam }

type sarvamTTSRequest struct {
	Text               string  `json:"text"`
	TargetLanguageCode string  `json:"target_language_code"`
	Speaker            string  `json:"speaker"`
	Model              string  `json:"model"`
	Pace               float64 `json:"pace"`
}

type sarvamTTSResponse struct {
	Audios []string `json:"audios"`
}

func (s *SarvamSynthesizer) Synthesize(ctx context.Context, text string) (audio.Payload, error) {
	payload, err := json.Marshal(sarvamTTSRequest{
		Text:               text,
		TargetLanguageCode: s.language,
		Speaker:            s.speaker,
		Model:              sarvamTTSModel,
		Pace:               DefaultRate,
	})
	if err != nil {
		return audio.Payload{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/text-to-speech", bytes.NewReader(payload))
	if err != nil {
		return audio.Payload{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("api-subscription-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return audio.Payload{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return audio.Payload{}, &ProviderError{Provider: ProviderSarvam, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result sarvamTTSResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return audio.Payload{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Audios) == 0 {
		return audio.Payload{}, errors.New("sarvam returned no audio")
	}

	data, err := base64.StdEncoding.DecodeString(result.Audios[0])
	if err != nil {
		return audio.Payload{}, fmt.Errorf("decoding audio: %w", err)
	}
	return audio.Payload{Data: data, MIMEType: audio.MIMEWAV}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
