package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "recipecatalog/internal/errors"
	"recipecatalog/internal/recipe"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// HTTPStatusFromCode maps a structured error code to an HTTP status.
func HTTPStatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func retryable(code apperrors.ErrorCode) bool {
	switch code {
	case apperrors.ErrCodeTimeout, apperrors.ErrCodeUnavailable, apperrors.ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// classify turns any error into a StructuredError.
func classify(err error) *apperrors.StructuredError {
	var se *apperrors.StructuredError
	switch {
	case errors.As(err, &se):
		return se
	case isTimeout(err):
		return apperrors.Wrap(apperrors.ErrCodeTimeout, "request timed out", err)
	case errors.Is(err, recipe.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCodeNotFound, "recipe not found", err)
	case errors.Is(err, recipe.ErrMalformedInput):
		return apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "malformed input", err)
	default:
		return apperrors.Wrap(apperrors.ErrCodeInternal, "storage failure", err)
	}
}

// writeError converts err into an ErrorResponse and aborts the request.
func writeError(c *gin.Context, err error) {
	se := classify(err)
	status := HTTPStatusFromCode(se.Code)

	details := make(map[string]any, len(se.Context)+1)
	for k, v := range se.Context {
		details[k] = v
	}
	if se.Cause != nil {
		details["error"] = se.Cause.Error()
	}

	attrs := []any{"requestID", requestID(c), "path", c.Request.URL.Path, "code", se.Code, "error", err}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}

	writeErrorResponse(c, status, se.Code, se.Message, details)
}

func writeErrorResponse(c *gin.Context, status int, code apperrors.ErrorCode, message string, details map[string]any) {
	if len(details) == 0 {
		details = nil
	}
	id := requestID(c)
	if id == "" {
		id = uuid.New().String()
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: id,
		Timestamp: time.Now().UTC(),
		Retryable: retryable(code),
	})
}
