// Package handler exposes the HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

// respondError maps service errors onto HTTP statuses. Anything outside the
// known taxonomy becomes an opaque 500; internals never leak to callers.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var unsafe *model.UnsafeContentError
	switch {
	case errors.As(err, &unsafe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "content rejected by safety check",
			"violations": unsafe.Violations,
		})
	case errors.Is(err, model.ErrInvalidModel), errors.Is(err, model.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
	case errors.Is(err, model.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "a story generation is already in progress"})
	case errors.Is(err, model.ErrStoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
	default:
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
