package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/resumetailor/internal/api"
	"github.com/timmy/resumetailor/internal/config"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/repository"
	"github.com/timmy/resumetailor/internal/service"
	"github.com/timmy/resumetailor/internal/source/speedyapply"
	"github.com/timmy/resumetailor/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// Initialize logger
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	resumeRepo := repository.NewResumeRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Initialize storage (supports R2, S3, and S3-compatible endpoints)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}

	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		logger.Fatal("Failed to ensure storage bucket: %v", err)
	}

	// Initialize services
	uploadService := service.NewUploadService(resumeRepo, objectStorage, log, service.UploadConfig{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	parserService := service.NewParserService(service.NewLLMClient(&cfg.Parser))
	extractService := service.NewExtractService(resumeRepo, objectStorage, parserService, log)

	tailorAgent := service.NewTailorLLM(service.NewLLMClient(&cfg.Tailor.LLM))
	tailorService := service.NewTailorService(runRepo, resumeRepo, objectStorage, tailorAgent, log, &service.TailorConfig{
		Workers: cfg.Tailor.Workers,
	})

	jobSource := speedyapply.NewAdapter(&speedyapply.Config{
		BaseURL: cfg.Jobs.BaseURL,
		APIKey:  cfg.Jobs.APIKey,
		Timeout: cfg.Jobs.Timeout,
	})

	// Setup router
	router := api.SetupRouter(&api.Services{
		Uploads: uploadService,
		Extract: extractService,
		Tailor:  tailorService,
		Jobs:    jobSource,
	}, &cfg.Server, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
