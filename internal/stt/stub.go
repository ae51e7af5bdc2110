package stt

import (
	"context"
	"fmt"
	"path"
)

// StubClient is a deterministic transcriber for development.
type StubClient struct{}

// NewStubClient constructs StubClient.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// Transcribe returns a placeholder transcript derived from the locator.
func (s *StubClient) Transcribe(ctx context.Context, audioLocator string) (string, error) {
	return fmt.Sprintf("voice message %s", path.Base(audioLocator)), nil
}
