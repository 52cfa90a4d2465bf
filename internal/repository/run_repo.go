package repository

import (
	"context"
	"errors"

	"github.com/timmy/resumetailor/internal/domain"
	"gorm.io/gorm"
)

// RunRepository handles tailoring run and record data operations.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts a run together with its records in a single transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run record to persist.
//   - records: per-job records, already positioned in input order.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *RunRepository) CreateRun(ctx context.Context, run *domain.TailoringRun, records []domain.TailoringRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// GetRun retrieves a run by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//
// Returns:
//   - *domain.TailoringRun: run record if found.
//   - error: domain.ErrNotFound if missing, other errors on query failure.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.TailoringRun, error) {
	var run domain.TailoringRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// UpdateRun persists the full run state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run record with updated fields.
//
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) UpdateRun(ctx context.Context, run *domain.TailoringRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// HasActiveRun reports whether the resume has a run in a non-terminal status.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - resumeID: resume ID.
//
// Returns:
//   - bool: true when a pending or processing run exists.
//   - error: non-nil if the query fails.
func (r *RunRepository) HasActiveRun(ctx context.Context, resumeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.TailoringRun{}).
		Where("resume_id = ? AND status IN ?", resumeID,
			[]domain.RunStatus{domain.RunStatusPending, domain.RunStatusProcessing}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetRecord retrieves a single tailoring record by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record ID.
//
// Returns:
//   - *domain.TailoringRecord: record if found.
//   - error: domain.ErrNotFound if missing, other errors on query failure.
func (r *RunRepository) GetRecord(ctx context.Context, id string) (*domain.TailoringRecord, error) {
	var record domain.TailoringRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListRecords retrieves the records of a run in input (position) order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - runID: run ID.
//
// Returns:
//   - []domain.TailoringRecord: records ordered by position.
//   - error: non-nil if the query fails.
func (r *RunRepository) ListRecords(ctx context.Context, runID string) ([]domain.TailoringRecord, error) {
	var records []domain.TailoringRecord
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateRecord persists the full record state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: record with updated fields.
//
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) UpdateRecord(ctx context.Context, record *domain.TailoringRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
