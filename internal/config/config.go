package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration.
type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	DBDSN string `envconfig:"DB_DSN"`

	UploadDir     string `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadBaseURL string `envconfig:"UPLOAD_BASE_URL" default:"/uploads"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	ElevenLabsAPIKey string `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsModel  string `envconfig:"ELEVENLABS_MODEL_ID"`
}

// Load reads an optional .env file, parses environment variables into Config,
// and validates required values. Missing AI keys are not an error: the
// corresponding adapters run as stubs.
func Load() (Config, error) {
	// .env is a development convenience; absence is fine
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("DB_DSN is required")
	}

	return cfg, nil
}
