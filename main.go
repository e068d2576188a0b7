package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docchat/config"
	"docchat/database"
	"docchat/llmclient"
	"docchat/web"
	"docchat/web/format"
	"docchat/web/services"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	if cfg.OpenRouterAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is not set; chat and model listing will fail")
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize document store", zap.Error(err))
	}
	defer store.Close()

	render, err := format.Lookup(cfg.Renderer)
	if err != nil {
		logger.Fatal("Invalid renderer", zap.Error(err))
	}

	llm := llmclient.New(cfg, logger)
	docs := services.NewDocumentService(cfg.MaxContentLength, logger)
	stores := services.NewStoreService(store, logger)
	svc := web.Services{
		Uploads: services.NewUploadService(store, docs, cfg, logger),
		Chat:    services.NewChatService(store, llm, docs, cfg.DefaultModel, logger),
		Stores:  stores,
		Models:  services.NewModelService(llm, cfg.ModelsCacheTTL, logger),
	}

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cleanupService := web.NewCleanupService(store, stores, logger)
	go web.StartStoreCleanup(ctx, cfg, cleanupService, logger)

	webServer := web.NewServer(cfg, svc, render, logger)

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting document chat server", zap.String("port", port))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}

// openStore returns a Postgres store when DATABASE_URL is set and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("Using in-memory document store", zap.Int("capacity", cfg.StoreCapacity))
		return database.NewMemoryStore(cfg.StoreCapacity, logger)
	}

	store, err := database.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	logger.Info("Using Postgres document store")
	return store, nil
}
