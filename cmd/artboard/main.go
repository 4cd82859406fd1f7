package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/objectstore"
	"github.com/artboardhq/artboard/internal/orchestrator"
	"github.com/artboardhq/artboard/internal/realtime"
	"github.com/artboardhq/artboard/internal/registration"
	"github.com/artboardhq/artboard/internal/server"
	"github.com/artboardhq/artboard/internal/storage"
	"github.com/artboardhq/artboard/internal/storage/memory"
	"github.com/artboardhq/artboard/internal/storage/sqlite"
	"github.com/artboardhq/artboard/internal/telemetry"
	"github.com/artboardhq/artboard/internal/tools"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("artboard", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	registration.RegisterBuiltins()

	configPath := os.Getenv("ARTBOARD_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store storage.Store
	switch cfg.Storage.Type {
	case "memory":
		store = memory.New()
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLite.Path), 0o755); err != nil {
			log.Fatalf("Failed to create data dir: %v", err)
		}
		store, err = sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
	}
	defer store.Close()

	var (
		objStore objectstore.ObjectStore
		mediaDir string
	)
	if cfg.Media.Configured() {
		objStore, err = objectstore.NewMinio(context.Background(), cfg.Media)
		if err != nil {
			log.Fatalf("Failed to connect object store: %v", err)
		}
		logger.Info("object store connected", slog.String("bucket", cfg.Media.Bucket))
	} else {
		local, err := objectstore.NewLocal("./data/files")
		if err != nil {
			log.Fatalf("Failed to create media dir: %v", err)
		}
		objStore = local
		mediaDir = local.Dir()
		logger.Info("object store not configured, serving media locally",
			slog.String("dir", mediaDir))
	}

	hub := realtime.NewHub(logger)
	engine := canvas.NewEngine(store, hub, logger)

	registry := tools.NewRegistry(logger)
	registry.Rebuild(cfg)

	orch := orchestrator.New(registry,
		orchestrator.WithEngine(engine),
		orchestrator.WithContentStore(store),
		orchestrator.WithIngestor(orchestrator.NewIngestor(objStore)),
		orchestrator.WithLogger(logger),
	)

	srv := server.New(cfg.Server.Port, logger, server.Options{
		Orchestrator: orch,
		Registry:     registry,
		Content:      store,
		Hub:          hub,
		MediaDir:     mediaDir,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("artboard started",
		slog.Int("port", cfg.Server.Port),
		slog.Any("active_providers", cfg.ActiveProviders()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
