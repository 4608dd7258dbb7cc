package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelmux/channelmux/internal/access"
	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/tenant"
)

// Error represents an API error
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.Is(err, tenant.ErrChannelNotFound),
		errors.Is(err, access.ErrUserNotFound),
		errors.Is(err, access.ErrRequestNotFound),
		errors.Is(err, feed.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenant.ErrNoTenantDB),
		errors.Is(err, access.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response. Downstream failure detail is
// logged, not echoed to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
