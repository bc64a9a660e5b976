package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/quotegest/internal/api"
	"github.com/dgallion1/quotegest/internal/compose"
	"github.com/dgallion1/quotegest/internal/config"
	"github.com/dgallion1/quotegest/internal/pipeline"
	"github.com/dgallion1/quotegest/internal/sentence"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seg, err := sentence.ForName(cfg.Segmenter)
	if err != nil {
		log.Error("sentence segmenter", "error", err)
		os.Exit(1)
	}

	// The narrator is optional; drafts fall back to the template without it.
	var claude *compose.ClaudeClient
	if cfg.AnthropicAPIKey != "" {
		claude = compose.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		claude.SetURL(cfg.AnthropicURL)
		claude.Stats = compose.NewLLMStats(time.Hour)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, seg, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, seg, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if claude != nil {
			claude.Close()
		}
	}()

	log.Info("starting quotegest",
		"port", cfg.Port,
		"segmenter", cfg.Segmenter,
		"workers", cfg.WorkerCount,
		"narrator", claude != nil,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
