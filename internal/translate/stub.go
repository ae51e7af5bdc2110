package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StubClient is a deterministic translator for development and tests.
type StubClient struct {
	logger *slog.Logger
}

// NewStubClient returns a stubbed translator.
func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

var stubGreetings = map[string]string{
	"french":  "Bonjour",
	"spanish": "Hola",
	"german":  "Hallo",
	"english": "Hello",
}

// Translate returns a canned greeting for known greeting inputs and a tagged
// passthrough otherwise, so the translation path is visible in development.
func (s *StubClient) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	lang := strings.ToLower(targetLanguage)
	if greeting, ok := stubGreetings[lang]; ok && isGreeting(text) {
		return greeting, nil
	}

	s.logger.Debug("stub translation",
		slog.String("target_language", targetLanguage),
		slog.Int("length", len(text)),
	)
	return fmt.Sprintf("[%s] %s", lang, text), nil
}

func isGreeting(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "hello", "hi", "hey", "bonjour", "hola", "hallo":
		return true
	}
	return false
}
