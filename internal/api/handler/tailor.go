package handler

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/service"
)

// TailorHandler handles tailoring run endpoints.
type TailorHandler struct {
	tailor *service.TailorService
}

// NewTailorHandler creates a new tailoring handler.
// Parameters:
//   - tailor: tailoring service instance.
//
// Returns:
//   - *TailorHandler: initialized handler.
func NewTailorHandler(tailor *service.TailorService) *TailorHandler {
	return &TailorHandler{tailor: tailor}
}

// startTailorRequest is the JSON body for starting a tailoring run.
type startTailorRequest struct {
	ResumeID        string              `json:"resume_id" binding:"required"`
	JobDescriptions []domain.JobPosting `json:"job_descriptions" binding:"required"`
}

// StartTailor handles POST /api/tailor.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *TailorHandler) StartTailor(c *gin.Context) {
	var req startTailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	run, records, err := h.tailor.StartRun(c.Request.Context(), req.ResumeID, req.JobDescriptions)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":   run.ID,
		"status":    run.Status,
		"job_count": len(records),
		"message":   fmt.Sprintf("Tailoring started for %d job(s)", len(records)),
	})
}

// Status handles GET /api/tailor/:id/status.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *TailorHandler) Status(c *gin.Context) {
	result, err := h.tailor.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"task_id":          result.Run.ID,
		"status":           result.Run.Status,
		"overall_progress": result.OverallProgress,
		"records":          result.Records,
		"download_links":   result.DownloadLinks,
	}
	if result.Run.ErrorMessage != "" {
		resp["error_message"] = result.Run.ErrorMessage
	}

	c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /api/tailor/:id/cancel.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *TailorHandler) Cancel(c *gin.Context) {
	if err := h.tailor.CancelRun(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": c.Param("id"),
		"message": "Cancellation requested",
	})
}

// DownloadRecord handles GET /api/download-resume/:recordId.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (streams the artifact).
func (h *TailorHandler) DownloadRecord(c *gin.Context) {
	record, reader, err := h.tailor.DownloadRecord(c.Request.Context(), c.Param("recordId"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer reader.Close()

	fileName := fmt.Sprintf("tailored_%s_%s.pdf", record.Company, record.JobTitle)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers already sent; nothing useful left to write
		c.Abort()
	}
}

// DownloadFile handles GET /api/download/*file, serving a tailored artifact
// by its storage key.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (streams the artifact).
func (h *TailorHandler) DownloadFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("file"), "/")
	reader, err := h.tailor.DownloadArtifact(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Abort()
	}
}

// Bundle handles GET /api/tailor/:id/bundle, streaming a zip of every
// completed artifact of the run.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (streams the archive).
func (h *TailorHandler) Bundle(c *gin.Context) {
	runID := c.Param("id")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tailored_resumes_"+runID+".zip"))
	c.Header("Content-Type", "application/zip")
	if err := h.tailor.WriteBundle(c.Request.Context(), runID, c.Writer); err != nil {
		// If nothing was streamed yet the error can still be reported
		if c.Writer.Written() {
			c.Abort()
			return
		}
		c.Header("Content-Disposition", "")
		c.Header("Content-Type", "application/json")
		writeError(c, err)
	}
}
