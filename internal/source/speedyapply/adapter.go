package speedyapply

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/resumetailor/internal/domain"
)

const (
	SourceID   = "speedyapply"
	SourceName = "SpeedyApply"
)

// Adapter implements the JobSource interface against the SpeedyApply
// listings API.
type Adapter struct {
	client  *resty.Client
	baseURL string
}

// Config holds connection settings for the SpeedyApply API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewAdapter creates a new SpeedyApply adapter.
// Parameters:
//   - cfg: API connection settings.
//
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(cfg *Config) *Adapter {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	return &Adapter{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return SourceName
}

type searchResponse struct {
	Jobs []struct {
		Title           string   `json:"title"`
		Company         string   `json:"company"`
		Location        string   `json:"location"`
		URL             string   `json:"url"`
		Description     string   `json:"description"`
		Requirements    []string `json:"requirements"`
		PreferredSkills []string `json:"preferred_skills"`
	} `json:"jobs"`
}

// Search fetches job postings matching the query and location.
func (a *Adapter) Search(ctx context.Context, query, location string, limit int) ([]domain.JobPosting, error) {
	var result searchResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    query,
			"location": location,
			"limit":    fmt.Sprintf("%d", limit),
		}).
		SetResult(&result).
		Get(a.baseURL + "/jobs/search")
	if err != nil {
		return nil, fmt.Errorf("job search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &domain.BackendError{
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf("job search returned %s", resp.Status()),
		}
	}

	postings := make([]domain.JobPosting, 0, len(result.Jobs))
	for _, j := range result.Jobs {
		postings = append(postings, domain.JobPosting{
			Title:           j.Title,
			Company:         j.Company,
			Location:        j.Location,
			URL:             j.URL,
			Description:     j.Description,
			Requirements:    j.Requirements,
			PreferredSkills: j.PreferredSkills,
		})
		if limit > 0 && len(postings) >= limit {
			break
		}
	}

	return postings, nil
}
