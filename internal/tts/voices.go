package tts

import (
	"fmt"
	"strings"

	"lingochat/internal/chat"
)

// ElevenLabs voice ids keyed by language name. Most languages share the
// multilingual voices; a few have dedicated ones.
var maleVoices = map[string]string{
	"english":    "PIGsltMj3gFMR34aFDI3",
	"hindi":      "9cI5mhBtM4WtQ9Fo6jWQ",
	"urdu":       "9cI5mhBtM4WtQ9Fo6jWQ",
	"arabic":     "nH7M8bGCLQbKoS0wBZj7",
	"french":     "PIGsltMj3gFMR34aFDI3",
	"german":     "PIGsltMj3gFMR34aFDI3",
	"spanish":    "PIGsltMj3gFMR34aFDI3",
	"italian":    "PIGsltMj3gFMR34aFDI3",
	"portuguese": "PIGsltMj3gFMR34aFDI3",
	"dutch":      "PIGsltMj3gFMR34aFDI3",
	"swedish":    "PIGsltMj3gFMR34aFDI3",
	"norwegian":  "PIGsltMj3gFMR34aFDI3",
	"danish":     "PIGsltMj3gFMR34aFDI3",
	"polish":     "PIGsltMj3gFMR34aFDI3",
	"czech":      "PIGsltMj3gFMR34aFDI3",
	"romanian":   "PIGsltMj3gFMR34aFDI3",
	"turkish":    "PIGsltMj3gFMR34aFDI3",
	"vietnamese": "PIGsltMj3gFMR34aFDI3",
	"indonesian": "PIGsltMj3gFMR34aFDI3",
	"malay":      "PIGsltMj3gFMR34aFDI3",
	"filipino":   "PIGsltMj3gFMR34aFDI3",
	"russian":    "PIGsltMj3gFMR34aFDI3",
}

var femaleVoices = map[string]string{
	"english":    "EXAVITQu4vr4xnSDxMaL",
	"hindi":      "Xb7hH8MSUJpSbSDYk0k2",
	"urdu":       "Xb7hH8MSUJpSbSDYk0k2",
	"arabic":     "Xb7hH8MSUJpSbSDYk0k2",
	"french":     "EXAVITQu4vr4xnSDxMaL",
	"german":     "EXAVITQu4vr4xnSDxMaL",
	"spanish":    "EXAVITQu4vr4xnSDxMaL",
	"italian":    "EXAVITQu4vr4xnSDxMaL",
	"portuguese": "EXAVITQu4vr4xnSDxMaL",
	"dutch":      "EXAVITQu4vr4xnSDxMaL",
	"polish":     "EXAVITQu4vr4xnSDxMaL",
	"turkish":    "EXAVITQu4vr4xnSDxMaL",
	"russian":    "EXAVITQu4vr4xnSDxMaL",
}

// voiceIDFor resolves a voice id for the requested voice and language. An
// unknown voice selector falls back to the male table; an unmapped language
// is an ErrUnsupportedVoice.
func voiceIDFor(voice, language string) (string, error) {
	table := maleVoices
	if strings.EqualFold(voice, chat.VoiceFemale) {
		table = femaleVoices
	}

	id, ok := table[strings.ToLower(language)]
	if !ok {
		return "", fmt.Errorf("%w: %s (%s)", chat.ErrUnsupportedVoice, language, voice)
	}
	return id, nil
}
