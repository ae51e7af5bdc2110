package stt

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"lingochat/internal/chat"
	"lingochat/internal/metrics"
)

// FileResolver maps a blob locator to a readable local file path.
type FileResolver interface {
	Resolve(locator string) (string, error)
}

// WhisperClient transcribes stored voice messages with the OpenAI Whisper
// API.
type WhisperClient struct {
	logger *slog.Logger
	client openai.Client
	files  FileResolver
}

// NewWhisperClient constructs a Whisper transcriber.
func NewWhisperClient(logger *slog.Logger, apiKey string, files FileResolver) *WhisperClient {
	return &WhisperClient{
		logger: logger,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		files:  files,
	}
}

// Transcribe converts the audio behind the locator into plain text.
func (c *WhisperClient) Transcribe(ctx context.Context, audioLocator string) (string, error) {
	text, err := c.transcribe(ctx, audioLocator)
	if err != nil {
		metrics.TranscriptionFailures.Inc()
		return "", fmt.Errorf("%w: %v", chat.ErrTranscription, err)
	}
	return text, nil
}

func (c *WhisperClient) transcribe(ctx context.Context, audioLocator string) (string, error) {
	path, err := c.files.Resolve(audioLocator)
	if err != nil {
		return "", fmt.Errorf("resolve audio %s: %w", audioLocator, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio file %s: %w", path, err)
	}
	defer f.Close()

	transcription, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  f,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", audioLocator, err)
	}

	c.logger.Debug("transcribed audio",
		slog.String("audio", audioLocator),
		slog.Int("text_length", len(transcription.Text)),
	)
	return transcription.Text, nil
}
