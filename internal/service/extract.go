package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/storage"
)

// ResumeStore is the persistence surface the extraction service needs.
type ResumeStore interface {
	GetByID(ctx context.Context, id string) (*domain.Resume, error)
	GetExtraction(ctx context.Context, resumeID string) (*domain.Extraction, error)
	UpdateExtraction(ctx context.Context, extraction *domain.Extraction) error
}

// Parser converts resume text into the canonical resume JSON document.
type Parser interface {
	ParseResume(ctx context.Context, resumeText string) (string, error)
}

// ExtractService drives resume data extraction: it downloads the uploaded
// file, extracts its text, and runs the parser agent in the background,
// tracking status in the extraction record.
type ExtractService struct {
	resumes ResumeStore
	storage storage.ObjectStorage
	parser  Parser
	logger  *logger.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewExtractService creates a new extraction service.
// Parameters:
//   - resumes: resume persistence layer.
//   - objectStorage: object storage holding uploaded files.
//   - parser: resume parser agent.
//   - log: logger instance.
//
// Returns:
//   - *ExtractService: initialized service.
func NewExtractService(resumes ResumeStore, objectStorage storage.ObjectStorage, parser Parser, log *logger.Logger) *ExtractService {
	return &ExtractService{
		resumes:  resumes,
		storage:  objectStorage,
		parser:   parser,
		logger:   log,
		inflight: make(map[string]struct{}),
	}
}

// Start marks the resume's extraction as processing and launches the
// background extraction task. Re-invocation restarts a failed or completed
// extraction; an extraction already processing is returned as-is.
// Parameters:
//   - ctx: request context, used only for the synchronous lookups.
//   - resumeID: resume to extract.
//
// Returns:
//   - *domain.Extraction: extraction state after the transition.
//   - error: domain.ErrNotFound if the resume is unknown.
func (s *ExtractService) Start(ctx context.Context, resumeID string) (*domain.Extraction, error) {
	resume, err := s.resumes.GetByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	extraction, err := s.resumes.GetExtraction(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	// Only one extraction task per resume; concurrent Starts join the
	// in-flight one instead of racing on the record
	s.mu.Lock()
	if _, running := s.inflight[resumeID]; running || extraction.Status == domain.ExtractionStatusProcessing {
		s.mu.Unlock()
		extraction.Status = domain.ExtractionStatusProcessing
		return extraction, nil
	}
	s.inflight[resumeID] = struct{}{}
	s.mu.Unlock()

	now := time.Now()
	extraction.Status = domain.ExtractionStatusProcessing
	extraction.StartedAt = &now
	extraction.CompletedAt = nil
	extraction.ErrorMessage = ""
	if err := s.resumes.UpdateExtraction(ctx, extraction); err != nil {
		s.mu.Lock()
		delete(s.inflight, resumeID)
		s.mu.Unlock()
		return nil, err
	}

	// Detach from the request context; extraction outlives the HTTP call
	taskCtx := logger.SetResumeID(context.Background(), resumeID)
	go s.perform(taskCtx, resume)

	return extraction, nil
}

// Status returns the extraction state for a resume.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - resumeID: resume ID.
//
// Returns:
//   - *domain.Extraction: extraction state.
//   - error: domain.ErrNotFound if the resume is unknown.
func (s *ExtractService) Status(ctx context.Context, resumeID string) (*domain.Extraction, error) {
	return s.resumes.GetExtraction(ctx, resumeID)
}

// perform runs the extraction pipeline and records the outcome.
func (s *ExtractService) perform(ctx context.Context, resume *domain.Resume) {
	defer func() {
		s.mu.Lock()
		delete(s.inflight, resume.ID)
		s.mu.Unlock()
	}()

	start := time.Now()

	extractedJSON, err := s.extract(ctx, resume)

	extraction, getErr := s.resumes.GetExtraction(ctx, resume.ID)
	if getErr != nil {
		logger.CtxError(ctx, "Failed to load extraction for result: %v", getErr)
		return
	}

	now := time.Now()
	extraction.CompletedAt = &now
	if err != nil {
		extraction.Status = domain.ExtractionStatusFailed
		extraction.ErrorMessage = err.Error()
		logger.With(logger.Fields{
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		}).Error(ctx, "Resume extraction failed: %v", err)
	} else {
		extraction.Status = domain.ExtractionStatusCompleted
		extraction.ExtractedData = extractedJSON
		extraction.ErrorMessage = ""
		logger.With(logger.Fields{
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			logger.FieldSize:       len(extractedJSON),
		}).Info(ctx, "Resume extraction completed")
	}

	if err := s.resumes.UpdateExtraction(ctx, extraction); err != nil {
		logger.CtxError(ctx, "Failed to persist extraction result: %v", err)
	}
}

func (s *ExtractService) extract(ctx context.Context, resume *domain.Resume) (string, error) {
	data, err := s.storage.DownloadBytes(ctx, resume.StorageKey)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(resume.OriginalName))
	text, err := ExtractText(data, ext)
	if err != nil {
		return "", err
	}

	return s.parser.ParseResume(ctx, text)
}
