package source

import (
	"context"

	"github.com/timmy/resumetailor/internal/domain"
)

// JobSource defines the interface for job listing providers.
type JobSource interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// Search fetches job postings matching the query and location.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - query: job search keywords.
	//   - location: job location filter.
	//   - limit: maximum number of postings to return.
	// Returns:
	//   - []domain.JobPosting: matching postings, provider order.
	//   - error: non-nil if fetching fails.
	Search(ctx context.Context, query, location string, limit int) ([]domain.JobPosting, error)
}
