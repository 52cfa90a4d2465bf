package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/resumetailor/internal/source"
)

const defaultSearchLimit = 10

// JobsHandler handles job posting search endpoints.
type JobsHandler struct {
	jobs source.JobSource
}

// NewJobsHandler creates a new job search handler.
// Parameters:
//   - jobs: job posting source.
//
// Returns:
//   - *JobsHandler: initialized handler.
func NewJobsHandler(jobs source.JobSource) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// Search handles GET /api/search.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *JobsHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'query' is required",
		})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query parameter 'limit' must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	postings, err := h.jobs.Search(c.Request.Context(), query, c.Query("location"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": h.jobs.GetSourceID(),
		"jobs":   postings,
		"total":  len(postings),
	})
}
