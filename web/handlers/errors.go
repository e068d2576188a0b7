package handlers

import (
	"net/http"

	apperrors "docchat/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields,
			zap.Error(technicalError),
			zap.String("path", c.FullPath()),
			zap.Int("status", statusCode))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{"detail": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"detail": userMessage})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case apperrors.IsServiceUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
