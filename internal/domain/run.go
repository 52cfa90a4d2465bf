package domain

import (
	"fmt"
	"time"
)

// RunStatus represents the overall status of a tailoring run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCanceled   RunStatus = "canceled"
)

// RecordStatus represents the status of a single tailoring record.
// Values include RecordStatusPending, RecordStatusProcessing,
// RecordStatusCompleted, and RecordStatusFailed.
type RecordStatus string

const (
	RecordStatusPending    RecordStatus = "pending"
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusCompleted  RecordStatus = "completed"
	RecordStatusFailed     RecordStatus = "failed"
)

// TailoringRun represents a batch tailoring request: one uploaded resume
// tailored against a list of selected job postings.
type TailoringRun struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	ResumeID     string     `gorm:"type:text;not null;index" json:"resume_id"`
	Status       RunStatus  `gorm:"type:text;default:pending" json:"status"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for TailoringRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (TailoringRun) TableName() string {
	return "tailoring_runs"
}

// TailoringRecord tracks the tailoring of one resume against one job posting.
// Records are created pending in input order and advance only through
// pending -> processing -> completed|failed. Completed and failed are terminal.
type TailoringRecord struct {
	ID              string       `gorm:"type:text;primaryKey" json:"id"`
	RunID           string       `gorm:"type:text;not null;index" json:"run_id"`
	Position        int          `gorm:"not null" json:"position"`
	JobTitle        string       `gorm:"type:text" json:"job_title"`
	Company         string       `gorm:"type:text" json:"company"`
	Location        string       `gorm:"type:text" json:"location,omitempty"`
	Description     string       `gorm:"type:text" json:"-"`
	Requirements    StringArray  `gorm:"type:text" json:"requirements,omitempty"`
	PreferredSkills StringArray  `gorm:"type:text" json:"preferred_skills,omitempty"`
	Status          RecordStatus `gorm:"type:text;index;default:pending" json:"status"`
	Progress        int          `gorm:"default:0" json:"progress"`
	ArtifactKey     string       `gorm:"type:text" json:"artifact_key,omitempty"`
	ErrorMessage    string       `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName returns the database table name for TailoringRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (TailoringRecord) TableName() string {
	return "tailoring_records"
}

// Posting reconstructs the job posting snapshot stored on the record.
func (r *TailoringRecord) Posting() JobPosting {
	return JobPosting{
		Title:           r.JobTitle,
		Company:         r.Company,
		Location:        r.Location,
		Description:     r.Description,
		Requirements:    r.Requirements,
		PreferredSkills: r.PreferredSkills,
	}
}

// Terminal reports whether the record has reached a terminal status.
func (r *TailoringRecord) Terminal() bool {
	return r.Status == RecordStatusCompleted || r.Status == RecordStatusFailed
}

// Begin transitions the record from pending to processing and stamps StartedAt.
// Parameters: none.
// Returns:
//   - error: ErrInvalidTransition if the record is not pending.
func (r *TailoringRecord) Begin() error {
	if r.Status != RecordStatusPending {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, r.Status)
	}
	now := time.Now()
	r.Status = RecordStatusProcessing
	r.StartedAt = &now
	return nil
}

// Advance raises the progress of a processing record. Progress is
// monotonically non-decreasing and capped at 99; only Complete sets 100.
// Parameters:
//   - progress: new progress value, 0-99.
//
// Returns:
//   - error: ErrInvalidTransition if the record is not processing or the
//     value would move progress backwards or to 100.
func (r *TailoringRecord) Advance(progress int) error {
	if r.Status != RecordStatusProcessing {
		return fmt.Errorf("%w: advance from %s", ErrInvalidTransition, r.Status)
	}
	if progress < r.Progress || progress >= 100 {
		return fmt.Errorf("%w: progress %d -> %d", ErrInvalidTransition, r.Progress, progress)
	}
	r.Progress = progress
	return nil
}

// Complete transitions the record from processing to completed, sets
// progress to 100, stamps CompletedAt, and attaches the artifact key.
// Parameters:
//   - artifactKey: storage key of the tailored resume artifact.
//
// Returns:
//   - error: ErrInvalidTransition if the record is not processing, or a
//     validation error if artifactKey is empty.
func (r *TailoringRecord) Complete(artifactKey string) error {
	if r.Status != RecordStatusProcessing {
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, r.Status)
	}
	if artifactKey == "" {
		return NewValidationError("artifact_key", "must not be empty on completion")
	}
	now := time.Now()
	r.Status = RecordStatusCompleted
	r.Progress = 100
	r.ArtifactKey = artifactKey
	r.CompletedAt = &now
	return nil
}

// Fail transitions the record to failed with a message. Allowed from
// pending (queue abandoned) and processing (step error), never from a
// terminal status.
// Parameters:
//   - message: failure description surfaced to the client.
//
// Returns:
//   - error: ErrInvalidTransition if the record is already terminal.
func (r *TailoringRecord) Fail(message string) error {
	if r.Terminal() {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, r.Status)
	}
	now := time.Now()
	r.Status = RecordStatusFailed
	r.ErrorMessage = message
	r.CompletedAt = &now
	return nil
}

// OverallProgress computes the arithmetic mean of record progress values.
// Parameters:
//   - records: records of a run, any order.
//
// Returns:
//   - int: mean progress 0-100; 0 for an empty slice.
func OverallProgress(records []TailoringRecord) int {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, r := range records {
		total += r.Progress
	}
	return total / len(records)
}
