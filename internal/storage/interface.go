package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for storing uploaded resumes and
// tailored resume artifacts.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadBytes downloads an object and reads it fully into memory
	DownloadBytes(ctx context.Context, key string) ([]byte, error)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the backing bucket if it doesn't exist
	EnsureBucket(ctx context.Context) error
}
