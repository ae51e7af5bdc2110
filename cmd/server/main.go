package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lingochat/internal/blob"
	"lingochat/internal/chat"
	"lingochat/internal/config"
	apphttp "lingochat/internal/http"
	"lingochat/internal/presence"
	"lingochat/internal/storage"
	"lingochat/internal/stt"
	"lingochat/internal/translate"
	"lingochat/internal/tts"
	"lingochat/migrations"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	// ensure DB is reachable
	if err := pingDB(ctx, db); err != nil {
		return err
	}

	if err := storage.RunMigrations(ctx, db, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	blobs, err := blob.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL,
		chat.KindImage, chat.KindAudio, chat.KindTranslated, chat.KindProfile)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	messages := storage.NewMessageRepository(db)
	users := storage.NewUserRepository(db)
	registry := presence.NewRegistry(logger)

	service := chat.NewService(
		logger,
		messages,
		users,
		newTranslator(logger, cfg),
		newTranscriber(logger, cfg, blobs),
		newSynthesizer(logger, cfg, blobs),
		blobs,
		registry,
	)

	handler := apphttp.NewServer(logger, service, registry, users, blobs.Root())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

// Adapters downgrade to stubs when their API key is absent, so the whole
// pipeline stays runnable in development.

func newTranslator(logger *slog.Logger, cfg config.Config) chat.Translator {
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using stub translator")
		return translate.NewStubClient(logger)
	}
	return translate.NewGeminiClient(logger, cfg.GeminiAPIKey, &translate.GeminiOptions{Model: cfg.GeminiModel})
}

func newTranscriber(logger *slog.Logger, cfg config.Config, blobs *blob.LocalStore) chat.Transcriber {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, using stub transcriber")
		return stt.NewStubClient()
	}
	return stt.NewWhisperClient(logger, cfg.OpenAIAPIKey, blobs)
}

func newSynthesizer(logger *slog.Logger, cfg config.Config, blobs *blob.LocalStore) chat.Synthesizer {
	if cfg.ElevenLabsAPIKey == "" {
		logger.Warn("ELEVENLABS_API_KEY not set, using stub synthesizer")
		return tts.NewStubClient(blobs)
	}
	return tts.NewElevenLabsClient(logger, cfg.ElevenLabsAPIKey, blobs, &tts.ElevenLabsOptions{ModelID: cfg.ElevenLabsModel})
}

func pingDB(ctx context.Context, db *sql.DB) error {
	const (
		maxAttempts = 10
		baseDelay   = time.Second
	)

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()

		if err == nil {
			return nil
		}

		// allow caller to abort early
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping db: %w", err)
		case <-time.After(time.Duration(attempt) * baseDelay):
		}
	}

	return fmt.Errorf("ping db: %w", err)
}
