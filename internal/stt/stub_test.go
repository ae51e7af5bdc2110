package stt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubClientTranscribe(t *testing.T) {
	client := NewStubClient()

	text, err := client.Transcribe(context.Background(), "/uploads/audio/clip.webm")
	require.NoError(t, err)
	require.Equal(t, "voice message clip.webm", text)

	again, err := client.Transcribe(context.Background(), "/uploads/audio/clip.webm")
	require.NoError(t, err)
	require.Equal(t, text, again)
}
