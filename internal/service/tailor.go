package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/prompts"
	"github.com/timmy/resumetailor/internal/storage"
)

// Progress checkpoints, tied to the concrete steps of the tailoring
// pipeline. Only Complete sets 100.
const (
	progressInputsLoaded  = 10
	progressPromptReady   = 25
	progressAgentDone     = 60
	progressValidated     = 75
	progressArtifactSaved = 90
)

// RunStore is the persistence surface the tailoring service needs.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.TailoringRun, records []domain.TailoringRecord) error
	GetRun(ctx context.Context, id string) (*domain.TailoringRun, error)
	UpdateRun(ctx context.Context, run *domain.TailoringRun) error
	HasActiveRun(ctx context.Context, resumeID string) (bool, error)
	GetRecord(ctx context.Context, id string) (*domain.TailoringRecord, error)
	ListRecords(ctx context.Context, runID string) ([]domain.TailoringRecord, error)
	UpdateRecord(ctx context.Context, record *domain.TailoringRecord) error
}

// ExtractionReader exposes the extraction lookup the tailoring service
// needs to validate a run's input.
type ExtractionReader interface {
	GetExtraction(ctx context.Context, resumeID string) (*domain.Extraction, error)
}

// TailorAgent produces a tailored resume from a prepared prompt.
type TailorAgent interface {
	Generate(ctx context.Context, userPrompt string) (*domain.TailoredResume, error)
}

// TailorConfig holds configuration for the tailoring service.
type TailorConfig struct {
	// Workers is the number of records processed concurrently. With the
	// default of 1, records complete strictly in input order.
	Workers int
}

// TailorService owns tailoring runs: it converts a list of selected job
// postings into tracked records and drives each through the tailoring
// pipeline, exposing live per-record and aggregate status.
type TailorService struct {
	runs        RunStore
	extractions ExtractionReader
	storage     storage.ObjectStorage
	agent       TailorAgent
	logger      *logger.Logger
	workers     int

	mu     sync.Mutex
	active map[string]context.CancelFunc

	obsMu     sync.RWMutex
	observers []func(domain.TailoringRecord)
}

// NewTailorService creates a new tailoring service.
// Parameters:
//   - runs: run persistence layer.
//   - extractions: extraction lookup for run input validation.
//   - objectStorage: object storage for tailored artifacts.
//   - agent: tailoring agent.
//   - log: logger instance.
//   - cfg: service configuration.
//
// Returns:
//   - *TailorService: initialized service.
func NewTailorService(
	runs RunStore,
	extractions ExtractionReader,
	objectStorage storage.ObjectStorage,
	agent TailorAgent,
	log *logger.Logger,
	cfg *TailorConfig,
) *TailorService {
	workers := 1
	if cfg != nil && cfg.Workers > 1 {
		workers = cfg.Workers
	}
	return &TailorService{
		runs:        runs,
		extractions: extractions,
		storage:     objectStorage,
		agent:       agent,
		logger:      log,
		workers:     workers,
		active:      make(map[string]context.CancelFunc),
	}
}

// OnRecordUpdate registers an observer invoked after every record
// mutation. Observers must not block; they run on the driver goroutine.
// Parameters:
//   - fn: callback receiving a copy of the mutated record.
//
// Returns: none.
func (s *TailorService) OnRecordUpdate(fn func(domain.TailoringRecord)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *TailorService) notify(record *domain.TailoringRecord) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for _, fn := range s.observers {
		fn(*record)
	}
}

// StartRun creates one pending record per job posting, in input order, and
// launches the run driver. A resume with an active run is rejected with
// domain.ErrRunActive rather than replacing the run.
// Parameters:
//   - ctx: request context, used for the synchronous setup only.
//   - resumeID: resume whose extracted data feeds the tailoring agent.
//   - jobs: selected job postings, input order preserved.
//
// Returns:
//   - *domain.TailoringRun: created run.
//   - []domain.TailoringRecord: created records in input order.
//   - error: validation, conflict, or persistence error.
func (s *TailorService) StartRun(ctx context.Context, resumeID string, jobs []domain.JobPosting) (*domain.TailoringRun, []domain.TailoringRecord, error) {
	if len(jobs) == 0 {
		return nil, nil, domain.NewValidationError("job_descriptions", "must not be empty")
	}

	extraction, err := s.extractions.GetExtraction(ctx, resumeID)
	if err != nil {
		return nil, nil, err
	}
	if extraction.Status != domain.ExtractionStatusCompleted {
		return nil, nil, domain.NewValidationError("resume_id", "resume extraction not completed")
	}
	if extraction.ExtractedData == "" {
		return nil, nil, domain.NewValidationError("resume_id", "no extracted resume data available")
	}

	activeExists, err := s.runs.HasActiveRun(ctx, resumeID)
	if err != nil {
		return nil, nil, err
	}
	if activeExists {
		return nil, nil, domain.ErrRunActive
	}

	run := &domain.TailoringRun{
		ID:        uuid.New().String(),
		ResumeID:  resumeID,
		Status:    domain.RunStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	records := make([]domain.TailoringRecord, 0, len(jobs))
	for i, job := range jobs {
		records = append(records, domain.TailoringRecord{
			ID:              uuid.New().String(),
			RunID:           run.ID,
			Position:        i,
			JobTitle:        job.Title,
			Company:         job.Company,
			Location:        job.Location,
			Description:     job.Description,
			Requirements:    job.Requirements,
			PreferredSkills: job.PreferredSkills,
			Status:          domain.RecordStatusPending,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		})
	}

	if err := s.runs.CreateRun(ctx, run, records); err != nil {
		return nil, nil, fmt.Errorf("failed to create tailoring run: %w", err)
	}

	// The run outlives the HTTP request; drive it on a background context
	// that CancelRun can cut.
	runCtx, cancel := context.WithCancel(context.Background())
	runCtx = logger.SetRunID(runCtx, run.ID)
	runCtx = logger.SetResumeID(runCtx, resumeID)

	s.mu.Lock()
	s.active[run.ID] = cancel
	s.mu.Unlock()

	// The driver mutates its own copies; the caller keeps the pending snapshot
	driverRun := *run
	driverRecords := make([]domain.TailoringRecord, len(records))
	copy(driverRecords, records)
	go s.drive(runCtx, &driverRun, driverRecords, extraction.ExtractedData)

	return run, records, nil
}

// CancelRun cancels an active run. The in-flight record fails with a
// cancellation message, untouched records stay pending, and the run is
// marked canceled by the driver.
// Parameters:
//   - ctx: context for the run lookup.
//   - runID: run to cancel.
//
// Returns:
//   - error: domain.ErrNotFound for unknown runs, a validation error for
//     runs that are no longer active.
func (s *TailorService) CancelRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	cancel, ok := s.active[runID]
	s.mu.Unlock()

	if ok {
		cancel()
		return nil
	}

	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return err
	}
	return domain.NewValidationError("run_id", "run is not active")
}

func (s *TailorService) release(runID string) {
	s.mu.Lock()
	if cancel, ok := s.active[runID]; ok {
		cancel()
		delete(s.active, runID)
	}
	s.mu.Unlock()
}

// drive advances the run's records through the tailoring pipeline and
// finalizes the run status.
func (s *TailorService) drive(ctx context.Context, run *domain.TailoringRun, records []domain.TailoringRecord, resumeJSON string) {
	defer s.release(run.ID)

	// Run and record states are still written after CancelRun cuts ctx;
	// the canceled outcome itself must reach the store.
	persistCtx := context.WithoutCancel(ctx)

	start := time.Now()
	run.Status = domain.RunStatusProcessing
	run.StartedAt = &start
	if err := s.runs.UpdateRun(persistCtx, run); err != nil {
		logger.CtxError(ctx, "Failed to mark run processing: %v", err)
	}

	if s.workers == 1 {
		for i := range records {
			s.process(ctx, run, &records[i], resumeJSON)
		}
	} else {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < s.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					s.process(ctx, run, &records[i], resumeJSON)
				}
			}()
		}
		for i := range records {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}

	completed := 0
	failed := 0
	for i := range records {
		switch records[i].Status {
		case domain.RecordStatusCompleted:
			completed++
		case domain.RecordStatusFailed:
			failed++
		}
	}

	finished := time.Now()
	run.CompletedAt = &finished
	switch {
	case ctx.Err() != nil:
		run.Status = domain.RunStatusCanceled
		run.ErrorMessage = "run canceled"
	case completed > 0:
		run.Status = domain.RunStatusCompleted
		run.ErrorMessage = ""
	default:
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = "failed to tailor any resumes"
	}
	if err := s.runs.UpdateRun(persistCtx, run); err != nil {
		logger.CtxError(ctx, "Failed to finalize run: %v", err)
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: finished.Sub(start).Milliseconds(),
		logger.FieldCount:      completed,
		logger.FieldStatus:     string(run.Status),
	}).Info(ctx, "Tailoring run finished: total=%d, completed=%d, failed=%d", len(records), completed, failed)
}

// process drives a single record through the pipeline. A step error fails
// the record and leaves the rest of the queue untouched; a canceled
// context before the record starts leaves it pending.
func (s *TailorService) process(ctx context.Context, run *domain.TailoringRun, rec *domain.TailoringRecord, resumeJSON string) {
	if ctx.Err() != nil {
		return
	}
	ctx = logger.SetRecordID(ctx, rec.ID)

	if err := rec.Begin(); err != nil {
		logger.CtxError(ctx, "Record in unexpected state: %v", err)
		return
	}
	s.saveRecord(ctx, rec)

	fail := func(message string) {
		if err := rec.Fail(message); err != nil {
			logger.CtxError(ctx, "Failed to mark record failed: %v", err)
			return
		}
		s.saveRecord(ctx, rec)
		logger.CtxWarn(ctx, "Tailoring record failed: %s", message)
	}

	step := func(progress int) bool {
		if ctx.Err() != nil {
			fail("tailoring canceled")
			return false
		}
		if err := rec.Advance(progress); err != nil {
			logger.CtxError(ctx, "Failed to advance record: %v", err)
			return false
		}
		s.saveRecord(ctx, rec)
		return true
	}

	// Inputs loaded: job snapshot must be usable before spending agent calls
	if rec.JobTitle == "" || rec.Description == "" {
		fail("job posting is missing a title or description")
		return
	}
	if !step(progressInputsLoaded) {
		return
	}

	prompt, err := prompts.TailorUserPrompt(resumeJSON, rec.Posting())
	if err != nil {
		fail(err.Error())
		return
	}
	if !step(progressPromptReady) {
		return
	}

	doc, err := s.agent.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			fail("tailoring canceled")
		} else {
			fail(err.Error())
		}
		return
	}
	if !step(progressAgentDone) {
		return
	}

	if err := doc.Validate(); err != nil {
		fail(fmt.Sprintf("tailored resume rejected: %v", err))
		return
	}
	if !step(progressValidated) {
		return
	}

	artifact, err := renderResumePDF(doc)
	if err != nil {
		fail(fmt.Sprintf("failed to render artifact: %v", err))
		return
	}
	key := fmt.Sprintf("tailored/%s/%s.pdf", run.ID, rec.ID)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(artifact), int64(len(artifact)), "application/pdf"); err != nil {
		if ctx.Err() != nil {
			fail("tailoring canceled")
		} else {
			fail(fmt.Sprintf("failed to store artifact: %v", err))
		}
		return
	}
	if !step(progressArtifactSaved) {
		return
	}

	if err := rec.Complete(key); err != nil {
		logger.CtxError(ctx, "Failed to complete record: %v", err)
		return
	}
	s.saveRecord(ctx, rec)

	logger.With(logger.Fields{
		logger.FieldSize: len(artifact),
	}).Info(ctx, "Tailoring record completed: company=%s, title=%s", rec.Company, rec.JobTitle)
}

func (s *TailorService) saveRecord(ctx context.Context, rec *domain.TailoringRecord) {
	rec.UpdatedAt = time.Now()
	if err := s.runs.UpdateRecord(context.WithoutCancel(ctx), rec); err != nil {
		logger.CtxError(ctx, "Failed to persist record: %v", err)
	}
	s.notify(rec)
}

// RunStatusResult aggregates a run, its records, and derived fields for
// the status endpoint.
type RunStatusResult struct {
	Run             *domain.TailoringRun     `json:"run"`
	Records         []domain.TailoringRecord `json:"records"`
	OverallProgress int                      `json:"overall_progress"`
	DownloadLinks   []string                 `json:"download_links"`
}

// Status returns the live status of a run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - runID: run ID.
//
// Returns:
//   - *RunStatusResult: run, records in input order, mean progress, and
//     download links for completed records.
//   - error: domain.ErrNotFound for unknown runs.
func (s *TailorService) Status(ctx context.Context, runID string) (*RunStatusResult, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	records, err := s.runs.ListRecords(ctx, runID)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(records))
	for i := range records {
		if records[i].Status == domain.RecordStatusCompleted {
			links = append(links, "/api/download-resume/"+records[i].ID)
		}
	}

	return &RunStatusResult{
		Run:             run,
		Records:         records,
		OverallProgress: domain.OverallProgress(records),
		DownloadLinks:   links,
	}, nil
}

// DownloadRecord opens the artifact of a completed record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recordID: record ID.
//
// Returns:
//   - *domain.TailoringRecord: the record.
//   - io.ReadCloser: artifact contents; caller closes.
//   - error: domain.ErrNotFound for unknown records,
//     domain.ErrNotDownloadable for records that have not completed.
func (s *TailorService) DownloadRecord(ctx context.Context, recordID string) (*domain.TailoringRecord, io.ReadCloser, error) {
	record, err := s.runs.GetRecord(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	if record.Status != domain.RecordStatusCompleted {
		return nil, nil, domain.ErrNotDownloadable
	}

	reader, err := s.storage.Download(ctx, record.ArtifactKey)
	if err != nil {
		return nil, nil, err
	}
	return record, reader, nil
}

// DownloadArtifact opens a tailored artifact by its storage key. Only keys
// under the tailored prefix are served; anything else is treated as unknown.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: artifact storage key.
//
// Returns:
//   - io.ReadCloser: artifact contents; caller closes.
//   - error: domain.ErrNotFound for keys outside the artifact space or
//     missing objects.
func (s *TailorService) DownloadArtifact(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, "tailored/") || strings.Contains(key, "..") {
		return nil, domain.ErrNotFound
	}
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return s.storage.Download(ctx, key)
}

// WriteBundle streams a zip archive of all completed artifacts of a run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - runID: run ID.
//   - w: destination writer.
//
// Returns:
//   - error: domain.ErrNotFound for unknown runs,
//     domain.ErrNotDownloadable when no record has completed.
func (s *TailorService) WriteBundle(ctx context.Context, runID string, w io.Writer) error {
	if _, err := s.runs.GetRun(ctx, runID); err != nil {
		return err
	}
	records, err := s.runs.ListRecords(ctx, runID)
	if err != nil {
		return err
	}

	completed := make([]domain.TailoringRecord, 0, len(records))
	for i := range records {
		if records[i].Status == domain.RecordStatusCompleted {
			completed = append(completed, records[i])
		}
	}
	if len(completed) == 0 {
		return domain.ErrNotDownloadable
	}

	zw := zip.NewWriter(w)
	for _, rec := range completed {
		data, err := s.storage.DownloadBytes(ctx, rec.ArtifactKey)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to read artifact for record %s: %w", rec.ID, err)
		}
		name := fmt.Sprintf("%02d_%s_%s.pdf", rec.Position+1,
			sanitizeFileName(rec.Company), sanitizeFileName(rec.JobTitle))
		entry, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}
