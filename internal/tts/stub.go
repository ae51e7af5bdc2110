package tts

import (
	"context"
	"fmt"

	"lingochat/internal/chat"
)

// StubClient simulates speech synthesis for development. It honors the voice
// tables so unsupported languages still fail like the real client.
type StubClient struct {
	blobs chat.BlobStore
}

// NewStubClient constructs StubClient.
func NewStubClient(blobs chat.BlobStore) *StubClient {
	return &StubClient{blobs: blobs}
}

// Synthesize stores a placeholder audio blob and returns its locator.
func (s *StubClient) Synthesize(ctx context.Context, text, voice, targetLanguage string) (string, error) {
	if _, err := voiceIDFor(voice, targetLanguage); err != nil {
		return "", err
	}

	placeholder := []byte(fmt.Sprintf("stub audio (%s/%s): %s", voice, targetLanguage, text))
	locator, err := s.blobs.Store(ctx, placeholder, chat.KindTranslated, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("store stub audio: %w", err)
	}
	return locator, nil
}
