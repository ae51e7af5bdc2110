package translate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGeminiClientTranslate(t *testing.T) {
	var gotPath string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "  Bonjour\n"}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewGeminiClient(testLogger(), "test-key", &GeminiOptions{BaseURL: server.URL})

	translated, err := client.Translate(context.Background(), "Hello", "french")
	require.NoError(t, err)
	require.Equal(t, "Bonjour", translated)
	require.Contains(t, gotPath, defaultGeminiModel+":generateContent")
	require.Len(t, gotBody.Contents, 1)
	require.Contains(t, gotBody.Contents[0].Parts[0].Text, "french")
	require.Contains(t, gotBody.Contents[0].Parts[0].Text, "Hello")
}

func TestGeminiClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGeminiClient(testLogger(), "test-key", &GeminiOptions{BaseURL: server.URL})

	_, err := client.Translate(context.Background(), "Hello", "french")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=429")
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(testLogger(), "test-key", &GeminiOptions{BaseURL: server.URL})

	_, err := client.Translate(context.Background(), "Hello", "french")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no candidates")
}

func TestDetectLanguage(t *testing.T) {
	lang := DetectLanguage("Это очень длинное предложение на русском языке для надёжного определения.")
	require.Equal(t, "russian", lang)

	// nothing to detect
	require.Equal(t, "", DetectLanguage("12345"))
}

func TestStubClientGreetings(t *testing.T) {
	client := NewStubClient(testLogger())

	out, err := client.Translate(context.Background(), "Hello", "french")
	require.NoError(t, err)
	require.Equal(t, "Bonjour", out)

	out, err = client.Translate(context.Background(), "how are you", "french")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "[french] "))
}
