package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/resumetailor/internal/service"
)

// ResumeHandler handles resume upload and extraction endpoints.
type ResumeHandler struct {
	uploads *service.UploadService
	extract *service.ExtractService
}

// NewResumeHandler creates a new resume handler.
// Parameters:
//   - uploads: upload service instance.
//   - extract: extraction service instance.
//
// Returns:
//   - *ResumeHandler: initialized handler.
func NewResumeHandler(uploads *service.UploadService, extract *service.ExtractService) *ResumeHandler {
	return &ResumeHandler{
		uploads: uploads,
		extract: extract,
	}
}

// saveResumeRequest is the JSON body for browser uploads that send the file
// as a base64 data URL.
type saveResumeRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileData string `json:"file_data" binding:"required"`
}

// SaveResume handles POST /api/save-resume.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ResumeHandler) SaveResume(c *gin.Context) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	resume, err := h.uploads.SaveDataURL(c.Request.Context(), req.FileName, req.FileData)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resume_id": resume.ID,
		"file_name": resume.OriginalName,
		"file_size": resume.FileSize,
		"status":    resume.Status,
	})
}

// Upload handles POST /api/upload with a multipart form file.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ResumeHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Form field 'file' is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to open uploaded file: " + err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read uploaded file: " + err.Error(),
		})
		return
	}

	resume, err := h.uploads.Save(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resume_id": resume.ID,
		"file_name": resume.OriginalName,
		"file_size": resume.FileSize,
		"status":    resume.Status,
	})
}

// StartExtract handles POST /api/extract/:id.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ResumeHandler) StartExtract(c *gin.Context) {
	extraction, err := h.extract.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resume_id": extraction.ResumeID,
		"status":    extraction.Status,
	})
}

// ExtractStatus handles GET /api/extract/:id/status.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *ResumeHandler) ExtractStatus(c *gin.Context) {
	extraction, err := h.extract.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"resume_id": extraction.ResumeID,
		"status":    extraction.Status,
	}
	if extraction.ErrorMessage != "" {
		resp["error_message"] = extraction.ErrorMessage
	}
	if extraction.ExtractedData != "" {
		resp["extracted_data"] = json.RawMessage(extraction.ExtractedData)
	}

	c.JSON(http.StatusOK, resp)
}
