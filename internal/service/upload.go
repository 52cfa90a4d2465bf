package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/storage"
)

// ResumeCreator persists new resume records.
type ResumeCreator interface {
	Create(ctx context.Context, resume *domain.Resume) error
}

// UploadConfig holds validation limits for resume uploads.
type UploadConfig struct {
	MaxSizeBytes int64
	AllowedTypes []string
}

// UploadService validates and stores uploaded resume files.
type UploadService struct {
	resumes ResumeCreator
	storage storage.ObjectStorage
	logger  *logger.Logger
	cfg     UploadConfig
}

// NewUploadService creates a new upload service.
// Parameters:
//   - resumes: resume persistence layer.
//   - objectStorage: object storage for file contents.
//   - log: logger instance.
//   - cfg: upload validation limits.
//
// Returns:
//   - *UploadService: initialized service.
func NewUploadService(resumes ResumeCreator, objectStorage storage.ObjectStorage, log *logger.Logger, cfg UploadConfig) *UploadService {
	if cfg.MaxSizeBytes == 0 {
		cfg.MaxSizeBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = []string{".pdf", ".doc", ".docx"}
	}
	return &UploadService{
		resumes: resumes,
		storage: objectStorage,
		logger:  log,
		cfg:     cfg,
	}
}

// SaveDataURL decodes a browser-produced data URL and stores the file.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fileName: client-supplied file name.
//   - dataURL: base64 data URL ("data:<mime>;base64,<payload>").
//
// Returns:
//   - *domain.Resume: persisted resume record.
//   - error: validation error for malformed input, otherwise storage errors.
func (s *UploadService) SaveDataURL(ctx context.Context, fileName, dataURL string) (*domain.Resume, error) {
	idx := strings.Index(dataURL, "base64,")
	if !strings.HasPrefix(dataURL, "data:") || idx == -1 {
		return nil, domain.NewValidationError("file_data", "expected a base64 data URL")
	}

	data, err := base64.StdEncoding.DecodeString(dataURL[idx+len("base64,"):])
	if err != nil {
		return nil, domain.NewValidationError("file_data", "invalid base64 payload: %v", err)
	}

	return s.Save(ctx, fileName, data)
}

// Save validates and stores raw resume file bytes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fileName: client-supplied file name.
//   - data: file contents.
//
// Returns:
//   - *domain.Resume: persisted resume record.
//   - error: validation error if the file is rejected, otherwise storage errors.
func (s *UploadService) Save(ctx context.Context, fileName string, data []byte) (*domain.Resume, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.extensionAllowed(ext) {
		return nil, domain.NewValidationError("file", "file type %s not supported, allowed types: %s",
			ext, strings.Join(s.cfg.AllowedTypes, ", "))
	}

	if int64(len(data)) > s.cfg.MaxSizeBytes {
		return nil, domain.NewValidationError("file", "file exceeds maximum size of %d MB",
			s.cfg.MaxSizeBytes/(1024*1024))
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "file is empty")
	}

	resumeID := uuid.New().String()
	safeName := sanitizeFileName(fileName)
	storageKey := fmt.Sprintf("resumes/%s/%s", resumeID, safeName)
	contentType := contentTypeForExt(ext)

	if err := s.storage.Upload(ctx, storageKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("failed to store resume file: %w", err)
	}

	resume := &domain.Resume{
		ID:           resumeID,
		OriginalName: fileName,
		StorageKey:   storageKey,
		ContentType:  contentType,
		FileSize:     int64(len(data)),
		Status:       domain.ResumeStatusUploaded,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.resumes.Create(ctx, resume); err != nil {
		// Rollback the stored object so retries do not leak files
		if delErr := s.storage.Delete(ctx, storageKey); delErr != nil {
			s.logger.WithField("storage_key", storageKey).WithError(delErr).Error("Failed to rollback resume upload")
		}
		return nil, fmt.Errorf("failed to save resume record: %w", err)
	}

	s.logger.WithFields(logger.Fields{
		logger.FieldResumeID: resumeID,
		logger.FieldSize:     len(data),
	}).Info("Resume uploaded")

	return resume, nil
}

func (s *UploadService) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.AllowedTypes {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// sanitizeFileName strips path components and characters unsafe for
// storage keys.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "resume"
	}
	return sb.String()
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
