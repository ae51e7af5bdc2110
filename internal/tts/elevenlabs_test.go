package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lingochat/internal/chat"
)

type memoryBlobs struct {
	stored [][]byte
	kinds  []string
}

func (m *memoryBlobs) Store(ctx context.Context, data []byte, kind, mime string) (string, error) {
	m.stored = append(m.stored, data)
	m.kinds = append(m.kinds, kind)
	return fmt.Sprintf("/uploads/%s/tts-%d.mp3", kind, len(m.stored)), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVoiceIDFor(t *testing.T) {
	id, err := voiceIDFor(chat.VoiceMale, "English")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	female, err := voiceIDFor(chat.VoiceFemale, "english")
	require.NoError(t, err)
	require.NotEqual(t, id, female)

	_, err = voiceIDFor(chat.VoiceMale, "klingon")
	require.ErrorIs(t, err, chat.ErrUnsupportedVoice)
}

func TestElevenLabsClientSynthesize(t *testing.T) {
	var gotPath string
	var gotBody elevenLabsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	blobs := &memoryBlobs{}
	client := NewElevenLabsClient(testLogger(), "test-key", blobs, &ElevenLabsOptions{BaseURL: server.URL})

	locator, err := client.Synthesize(context.Background(), "Bonjour", chat.VoiceMale, "french")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(locator, "/uploads/translates/"))
	require.Equal(t, "Bonjour", gotBody.Text)
	require.Equal(t, defaultElevenLabsModel, gotBody.ModelID)
	require.Equal(t, "/"+maleVoices["french"], gotPath)
	require.Equal(t, [][]byte{[]byte("mp3-bytes")}, blobs.stored)
}

func TestElevenLabsClientUnsupportedLanguage(t *testing.T) {
	blobs := &memoryBlobs{}
	client := NewElevenLabsClient(testLogger(), "test-key", blobs, nil)

	_, err := client.Synthesize(context.Background(), "hi", chat.VoiceMale, "klingon")
	require.ErrorIs(t, err, chat.ErrUnsupportedVoice)
	require.Empty(t, blobs.stored)
}

func TestElevenLabsClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice limit reached", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testLogger(), "bad-key", &memoryBlobs{}, &ElevenLabsOptions{BaseURL: server.URL})

	_, err := client.Synthesize(context.Background(), "hi", chat.VoiceMale, "english")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=401")
}

func TestStubClientSynthesize(t *testing.T) {
	blobs := &memoryBlobs{}
	client := NewStubClient(blobs)

	locator, err := client.Synthesize(context.Background(), "Hola", chat.VoiceMale, "spanish")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(locator, "/uploads/translates/"))

	_, err = client.Synthesize(context.Background(), "Hola", chat.VoiceMale, "klingon")
	require.ErrorIs(t, err, chat.ErrUnsupportedVoice)
}
