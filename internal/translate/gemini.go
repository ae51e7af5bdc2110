package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"lingochat/internal/chat"
	"lingochat/internal/metrics"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel    = "gemini-flash-latest"
)

// GeminiOptions allows overriding HTTP behavior.
type GeminiOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// GeminiClient translates text using Google's Gemini generateContent API.
type GeminiClient struct {
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient constructs a new GeminiClient.
func NewGeminiClient(logger *slog.Logger, apiKey string, opts *GeminiOptions) *GeminiClient {
	if opts == nil {
		opts = &GeminiOptions{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiEndpoint
	}

	return &GeminiClient{
		logger:     logger,
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		CandidateCount int `json:"candidateCount"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Translate converts text into the target language and returns the bare
// translated text.
func (c *GeminiClient) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	translated, err := c.translate(ctx, text, targetLanguage)
	if err != nil {
		metrics.TranslationFailures.Inc()
		return "", fmt.Errorf("%w: %v", chat.ErrTranslation, err)
	}
	return translated, nil
}

func (c *GeminiClient) translate(ctx context.Context, text, targetLanguage string) (string, error) {
	reqPayload := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: buildPrompt(text, targetLanguage)}},
			},
		},
	}
	reqPayload.GenerationConfig.CandidateCount = 1

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gemini error: status=%d body=%s", resp.StatusCode, truncate(respBody, 512))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w body=%s", err, truncate(respBody, 256))
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	translated := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if translated == "" {
		return "", fmt.Errorf("gemini returned empty translation")
	}

	c.logger.Debug("translated text",
		slog.String("source_language", DetectLanguage(text)),
		slog.String("target_language", targetLanguage),
		slog.Int("source_length", len(text)),
		slog.Int("translated_length", len(translated)),
	)
	return translated, nil
}

func buildPrompt(text, targetLanguage string) string {
	var sb strings.Builder
	if source := DetectLanguage(text); source != "" {
		sb.WriteString("The following text is in ")
		sb.WriteString(source)
		sb.WriteString(". ")
	}
	sb.WriteString("Translate it to ")
	sb.WriteString(targetLanguage)
	sb.WriteString(". Return ONLY the translated text. Do not add anything else, no explanations, no extra words:\n\"")
	sb.WriteString(text)
	sb.WriteString("\"")
	return sb.String()
}

// DetectLanguage returns the English name of the detected source language,
// or "" when detection is unreliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return strings.ToLower(info.Lang.String())
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "…"
}
