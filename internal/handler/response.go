package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/middleware"
)

// APIResponse describes the standard envelope returned by operator endpoints.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// IngestErrorResponse is the error envelope of the lead webhook.
type IngestErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Ingest error kinds.
const (
	KindUnauthorized     = "unauthorized"
	KindInvalidBody      = "invalid_body"
	KindInvalidJSON      = "invalid_json"
	KindInvalidIntent    = "invalid_intent"
	KindMissingFields    = "missing_fields"
	KindMisconfigured    = "misconfigured"
	KindMethodNotAllowed = "method_not_allowed"
	KindPayloadTooLarge  = "payload_too_large"
	KindPDFFetchFailed   = "pdf_fetch_failed"
	KindStorageFailed    = "storage_failed"
	KindInsertFailed     = "insert_failed"
	KindInternalError    = "internal_error"
)

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:  "error",
		Message: message,
	}
	return c.JSON(status, payload)
}

// IngestError sends the webhook error envelope.
func IngestError(c echo.Context, status int, kind, message string, details any) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if kind == "" {
		kind = KindInternalError
	}
	return c.JSON(status, IngestErrorResponse{
		OK:      false,
		Error:   kind,
		Message: message,
		Details: details,
	})
}

// HTTPErrorHandler renders errors that escape handlers (including recovered
// panics) in the envelope of the route that produced them.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(status)
			}
		}
		if status >= http.StatusInternalServerError {
			logger.Error("unhandled request error",
				zap.String("request_id", middleware.RequestIDFromContext(c)),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		var writeErr error
		switch {
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(status)
		case c.Path() == IngestPath:
			kind := KindInternalError
			if status == http.StatusRequestEntityTooLarge {
				kind = KindPayloadTooLarge
			}
			writeErr = IngestError(c, status, kind, message, nil)
		default:
			writeErr = Error(c, status, message)
		}
		if writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}
