package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"steppetalk/config"
	"steppetalk/internal/application"
	"steppetalk/internal/infra/httpapi"
	"steppetalk/internal/infra/memory"
	"steppetalk/internal/infra/openai"
	"steppetalk/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	client := openai.NewClient(openai.Config{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		TextModel:    cfg.OpenAI.TextModel,
		TTSModel:     cfg.OpenAI.TTSModel,
		STTModel:     cfg.OpenAI.STTModel,
		TextTimeout:  cfg.OpenAI.TextTimeout,
		AudioTimeout: cfg.OpenAI.AudioTimeout,
		MaxTurns:     cfg.Session.MaxTurns,
	}, m)
	if !client.Enabled() {
		logger.Warn("OPENAI_API_KEY not set, running in demo mode")
	}

	sessions := memory.NewSessionStore(cfg.Session.MaxTurns)

	assistant := application.NewAssistant(client, client, client, sessions, client, logger)

	server := httpapi.NewServer(httpapi.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimit: httpapi.RateLimitOptions{
			RPS:   cfg.Server.RateLimit.RPS,
			Burst: cfg.Server.RateLimit.Burst,
		},
		TrustProxy:   cfg.Server.TrustProxy,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, assistant, m, logger)

	logger.Info("starting steppetalk",
		"addr", cfg.Server.Addr,
		"openai_enabled", client.Enabled(),
		"text_model", cfg.OpenAI.TextModel,
		"max_turns", cfg.Session.MaxTurns,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
