package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docchunk/internal/api"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/dgallion1/docchunk/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	store := pathstore.NewStore(ps)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

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
		ps.Close()
	}()

	chunkCfg := cfg.ChunkConfig()
	log.Info("starting docchunk",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"max_chunk_size", chunkCfg.MaxChunkSize,
		"overlap_size", chunkCfg.OverlapSize,
		"min_chunk_size", chunkCfg.MinChunkSize,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
