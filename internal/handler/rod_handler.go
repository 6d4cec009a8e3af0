package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/octobees/dealdesk/api/internal/dto"
	"github.com/octobees/dealdesk/api/internal/middleware"
	"github.com/octobees/dealdesk/api/internal/repository"
	"github.com/octobees/dealdesk/api/internal/service"
)

// RODRunner executes retention automation jobs.
type RODRunner interface {
	Run(ctx context.Context, req dto.RODAutomationRequest, requestID string) (any, error)
}

// RODErrorResponse is the error body of /rod-automation.
type RODErrorResponse struct {
	Error string `json:"error"`
}

// RODResponse wraps a successful automation result.
type RODResponse struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

// RODHandler serves POST /rod-automation.
type RODHandler struct {
	runner   RODRunner
	validate *validator.Validate
	maxBody  int64
}

// NewRODHandler constructs a RODHandler.
func NewRODHandler(runner RODRunner, maxBody int64) *RODHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &RODHandler{runner: runner, validate: validator.New(), maxBody: maxBody}
}

// Run decodes the job envelope and dispatches it.
func (h *RODHandler) Run(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxBody+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, RODErrorResponse{Error: "could not read request body"})
	}
	if int64(len(body)) > h.maxBody {
		return c.JSON(http.StatusRequestEntityTooLarge, RODErrorResponse{Error: "request body too large"})
	}

	var req dto.RODAutomationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, RODErrorResponse{Error: "invalid JSON body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, RODErrorResponse{Error: "unknown or missing automation type"})
	}

	result, err := h.runner.Run(c.Request().Context(), req, middleware.RequestIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownJob), errors.Is(err, service.ErrInvalidConfig):
			return c.JSON(http.StatusBadRequest, RODErrorResponse{Error: err.Error()})
		case errors.Is(err, repository.ErrCampaignNotFound):
			return c.JSON(http.StatusNotFound, RODErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrCampaignNotTriggerable):
			return c.JSON(http.StatusConflict, RODErrorResponse{Error: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, RODErrorResponse{Error: err.Error()})
		}
	}

	return c.JSON(http.StatusOK, RODResponse{Success: true, Result: result})
}
