// Command scoreboard-server runs the live cricket scoring API: match
// state over HTTP, real-time frames over SSE and websockets, and
// AI-voiced commentary when the providers are configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thunderavi/scoreboard/internal/commentary"
	"github.com/thunderavi/scoreboard/internal/config"
	"github.com/thunderavi/scoreboard/internal/httpapi"
	"github.com/thunderavi/scoreboard/internal/hub"
	"github.com/thunderavi/scoreboard/internal/service"
	"github.com/thunderavi/scoreboard/internal/storage"
	"github.com/thunderavi/scoreboard/providers/llm/gemini"
	"github.com/thunderavi/scoreboard/providers/tts/polly"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scoreboard-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var textProvider commentary.TextProvider
	if cfg.GeminiAPIKey != "" {
		provider, err := gemini.New(gemini.Config{
			APIKey:   cfg.GeminiAPIKey,
			Endpoint: cfg.GeminiEndpoint,
			Timeout:  cfg.GeminiTimeout,
		})
		if err != nil {
			return fmt.Errorf("configure gemini: %w", err)
		}
		textProvider = provider
		logger.Info("ai commentary enabled")
	} else {
		logger.Info("ai commentary disabled, using templates")
	}
	gen := commentary.NewGenerator(textProvider)

	h := hub.New(logger,
		hub.WithHeartbeatInterval(cfg.HeartbeatInterval),
		hub.WithSweepInterval(cfg.SweepInterval))

	serviceOpts := []service.Option{}
	apiOpts := []httpapi.Option{}
	if cfg.TTSEnabled {
		synth, err := polly.New(polly.Config{
			Region:   cfg.TTSRegion,
			VoiceID:  cfg.TTSVoice,
			Engine:   cfg.TTSEngine,
			AudioDir: cfg.AudioDir,
			Timeout:  cfg.TTSTimeout,
		})
		if err != nil {
			return fmt.Errorf("configure polly: %w", err)
		}
		serviceOpts = append(serviceOpts, service.WithSynthesizer(synth))
		apiOpts = append(apiOpts, httpapi.WithAudioDir(synth.AudioDir()))
		logger.Info("audio commentary enabled", "voice", cfg.TTSVoice)
	}

	svc, err := service.New(store, h, gen, logger, serviceOpts...)
	if err != nil {
		return err
	}
	api, err := httpapi.New(svc, h, logger, apiOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go h.Run(ctx)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	svc.Wait()
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
