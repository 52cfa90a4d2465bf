package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/timmy/resumetailor/internal/config"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/repository"
	"github.com/timmy/resumetailor/internal/service"
	"github.com/timmy/resumetailor/internal/storage"
)

const pollInterval = 2 * time.Second

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "resumetailor-cli",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	resumePath := flag.String("resume", "", "Path to the resume file (.pdf or .docx)")
	jobsPath := flag.String("jobs", "", "Path to a JSON file with an array of job postings")
	outDir := flag.String("out", ".", "Directory to write tailored resumes to")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *resumePath == "" || *jobsPath == "" {
		appLogger.Fatal("Both -resume and -jobs are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	jobs, err := loadJobs(*jobsPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load job postings")
	}

	appLogger.WithFields(logger.Fields{
		"resume": *resumePath,
		"jobs":   len(jobs),
	}).Info("Starting tailoring")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	resumeRepo := repository.NewResumeRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Initialize S3-compatible storage (supports R2, S3, etc.)
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
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize services
	uploadService := service.NewUploadService(resumeRepo, objectStorage, appLogger, service.UploadConfig{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})
	parserService := service.NewParserService(service.NewLLMClient(&cfg.Parser))
	extractService := service.NewExtractService(resumeRepo, objectStorage, parserService, appLogger)
	tailorAgent := service.NewTailorLLM(service.NewLLMClient(&cfg.Tailor.LLM))
	tailorService := service.NewTailorService(runRepo, resumeRepo, objectStorage, tailorAgent, appLogger, &service.TailorConfig{
		Workers: cfg.Tailor.Workers,
	})

	// Log per-record progress as the run advances
	tailorService.OnRecordUpdate(func(rec domain.TailoringRecord) {
		appLogger.WithFields(logger.Fields{
			"company":  rec.Company,
			"title":    rec.JobTitle,
			"status":   rec.Status,
			"progress": rec.Progress,
		}).Info("Record updated")
	})

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Upload
	data, err := os.ReadFile(*resumePath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read resume file")
	}
	resume, err := uploadService.Save(ctx, filepath.Base(*resumePath), data)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to store resume")
	}

	// Extract
	if _, err := extractService.Start(ctx, resume.ID); err != nil {
		appLogger.WithError(err).Fatal("Failed to start extraction")
	}
	if err := waitForExtraction(ctx, extractService, resume.ID); err != nil {
		appLogger.WithError(err).Fatal("Extraction failed")
	}
	appLogger.Info("Resume extraction completed")

	// Tailor
	run, _, err := tailorService.StartRun(ctx, resume.ID, jobs)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to start tailoring run")
	}

	result, err := waitForRun(ctx, tailorService, run.ID)
	if err != nil {
		appLogger.WithError(err).Fatal("Tailoring run failed")
	}

	// Write artifacts
	written := 0
	for _, rec := range result.Records {
		if rec.Status != domain.RecordStatusCompleted {
			continue
		}
		artifact, err := objectStorage.DownloadBytes(ctx, rec.ArtifactKey)
		if err != nil {
			appLogger.WithError(err).Error("Failed to download artifact")
			continue
		}
		name := filepath.Join(*outDir, filepath.Base(rec.ArtifactKey))
		if err := os.WriteFile(name, artifact, 0o644); err != nil {
			appLogger.WithError(err).Error("Failed to write artifact")
			continue
		}
		written++
	}

	appLogger.WithFields(logger.Fields{
		"status":  result.Run.Status,
		"total":   len(result.Records),
		"written": written,
	}).Info("Tailoring completed")

	if result.Run.Status != domain.RunStatusCompleted {
		os.Exit(1)
	}
}

// loadJobs reads a JSON array of job postings from a file.
func loadJobs(path string) ([]domain.JobPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jobs []domain.JobPosting
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// waitForExtraction polls until the extraction reaches a terminal status.
func waitForExtraction(ctx context.Context, svc *service.ExtractService, resumeID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			extraction, err := svc.Status(ctx, resumeID)
			if err != nil {
				return err
			}
			switch extraction.Status {
			case domain.ExtractionStatusCompleted:
				return nil
			case domain.ExtractionStatusFailed:
				return domain.NewValidationError("", "%s", extraction.ErrorMessage)
			}
		}
	}
}

// waitForRun polls until the run reaches a terminal status.
func waitForRun(ctx context.Context, svc *service.TailorService, runID string) (*service.RunStatusResult, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Propagate the interrupt to the run, give the driver a moment
			// to finalize, then report what we have
			_ = svc.CancelRun(context.Background(), runID)
			time.Sleep(time.Second)
			return svc.Status(context.Background(), runID)
		case <-ticker.C:
			result, err := svc.Status(ctx, runID)
			if err != nil {
				return nil, err
			}
			switch result.Run.Status {
			case domain.RunStatusCompleted, domain.RunStatusFailed, domain.RunStatusCanceled:
				return result, nil
			}
		}
	}
}
