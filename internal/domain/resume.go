package domain

import "time"

// ResumeStatus represents the lifecycle status of an uploaded resume.
type ResumeStatus string

const (
	ResumeStatusUploaded ResumeStatus = "uploaded"
	ResumeStatusDeleted  ResumeStatus = "deleted"
)

// Resume represents an uploaded resume file and its storage metadata.
type Resume struct {
	ID           string       `gorm:"type:text;primaryKey" json:"id"`
	OriginalName string       `gorm:"type:text;not null" json:"original_name"`
	StorageKey   string       `gorm:"type:text;not null" json:"storage_key"`
	ContentType  string       `gorm:"type:text" json:"content_type"`
	FileSize     int64        `json:"file_size"`
	Status       ResumeStatus `gorm:"type:text;default:uploaded" json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Resume.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Resume) TableName() string {
	return "resumes"
}

// ExtractionStatus represents the status of a resume extraction.
// Values include ExtractionStatusPending, ExtractionStatusProcessing,
// ExtractionStatusCompleted, and ExtractionStatusFailed.
type ExtractionStatus string

const (
	ExtractionStatusPending    ExtractionStatus = "pending"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusCompleted  ExtractionStatus = "completed"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)

// Extraction represents the structured-data extraction state for a resume.
// ExtractedData holds the parsed resume as a JSON document once completed.
type Extraction struct {
	ResumeID      string           `gorm:"type:text;primaryKey" json:"resume_id"`
	Status        ExtractionStatus `gorm:"type:text;default:pending" json:"status"`
	ExtractedData string           `gorm:"type:text" json:"extracted_data,omitempty"`
	ErrorMessage  string           `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Extraction.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Extraction) TableName() string {
	return "extractions"
}
