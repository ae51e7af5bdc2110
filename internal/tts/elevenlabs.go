package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lingochat/internal/chat"
	"lingochat/internal/metrics"
)

const (
	defaultElevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultElevenLabsModel    = "eleven_multilingual_v2"
)

// ElevenLabsOptions configures optional client behavior.
type ElevenLabsOptions struct {
	BaseURL    string
	ModelID    string
	HTTPClient *http.Client
}

// ElevenLabsClient synthesizes translated speech with ElevenLabs' API and
// stores the audio through the blob store.
type ElevenLabsClient struct {
	logger     *slog.Logger
	apiKey     string
	modelID    string
	httpClient *http.Client
	baseURL    string
	blobs      chat.BlobStore
}

// NewElevenLabsClient creates a new ElevenLabs synthesizer.
func NewElevenLabsClient(logger *slog.Logger, apiKey string, blobs chat.BlobStore, opts *ElevenLabsOptions) *ElevenLabsClient {
	if opts == nil {
		opts = &ElevenLabsOptions{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	modelID := opts.ModelID
	if modelID == "" {
		modelID = defaultElevenLabsModel
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultElevenLabsEndpoint
	}

	return &ElevenLabsClient{
		logger:     logger,
		apiKey:     apiKey,
		modelID:    modelID,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		blobs:      blobs,
	}
}

type elevenLabsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize renders text as speech in the target language and returns the
// locator of the stored audio.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voice, targetLanguage string) (string, error) {
	locator, err := c.synthesize(ctx, text, voice, targetLanguage)
	if err != nil {
		metrics.SynthesisFailures.Inc()
		if errors.Is(err, chat.ErrUnsupportedVoice) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", chat.ErrSynthesis, err)
	}
	return locator, nil
}

func (c *ElevenLabsClient) synthesize(ctx context.Context, text, voice, targetLanguage string) (string, error) {
	voiceID, err := voiceIDFor(voice, targetLanguage)
	if err != nil {
		return "", err
	}

	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: c.modelID,
	}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := string(body)
		if readErr != nil {
			bodyStr = fmt.Sprintf("(failed to read body: %v)", readErr)
		}
		return "", fmt.Errorf("elevenlabs error: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("elevenlabs returned empty audio")
	}

	locator, err := c.blobs.Store(ctx, audio, chat.KindTranslated, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("store synthesized audio: %w", err)
	}

	c.logger.Debug("synthesized speech",
		slog.String("target_language", targetLanguage),
		slog.String("voice_id", voiceID),
		slog.Int("audio_bytes", len(audio)),
		slog.String("locator", locator),
	)
	return locator, nil
}
