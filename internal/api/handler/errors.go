package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/resumetailor/internal/domain"
)

// writeError maps service errors to HTTP status codes and writes the
// standard error envelope.
func writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	var be *domain.BackendError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRunActive):
		c.JSON(http.StatusConflict, gin.H{"error": "a tailoring run is already in progress for this resume"})
	case errors.Is(err, domain.ErrNotDownloadable):
		c.JSON(http.StatusConflict, gin.H{"error": "tailored resume is not ready for download"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &be):
		c.JSON(http.StatusBadGateway, gin.H{"error": be.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
