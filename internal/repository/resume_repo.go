package repository

import (
	"context"
	"errors"

	"github.com/timmy/resumetailor/internal/domain"
	"gorm.io/gorm"
)

// ResumeRepository handles resume and extraction data operations.
type ResumeRepository struct {
	db *gorm.DB
}

// NewResumeRepository creates a new ResumeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *ResumeRepository: repository instance bound to db.
func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

// Create inserts a new resume record together with its pending extraction row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - resume: resume record to persist.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *ResumeRepository) Create(ctx context.Context, resume *domain.Resume) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resume).Error; err != nil {
			return err
		}
		extraction := &domain.Extraction{
			ResumeID: resume.ID,
			Status:   domain.ExtractionStatusPending,
		}
		return tx.Create(extraction).Error
	})
}

// GetByID retrieves a resume by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: resume ID.
//
// Returns:
//   - *domain.Resume: resume record if found.
//   - error: domain.ErrNotFound if missing, other errors on query failure.
func (r *ResumeRepository) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	var resume domain.Resume
	if err := r.db.WithContext(ctx).First(&resume, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &resume, nil
}

// GetExtraction retrieves the extraction state for a resume.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - resumeID: resume ID.
//
// Returns:
//   - *domain.Extraction: extraction record if found.
//   - error: domain.ErrNotFound if missing, other errors on query failure.
func (r *ResumeRepository) GetExtraction(ctx context.Context, resumeID string) (*domain.Extraction, error) {
	var extraction domain.Extraction
	if err := r.db.WithContext(ctx).First(&extraction, "resume_id = ?", resumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &extraction, nil
}

// UpdateExtraction persists the full extraction state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - extraction: extraction record with updated fields.
//
// Returns:
//   - error: non-nil if the update fails.
func (r *ResumeRepository) UpdateExtraction(ctx context.Context, extraction *domain.Extraction) error {
	return r.db.WithContext(ctx).Save(extraction).Error
}
