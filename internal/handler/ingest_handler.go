package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/middleware"
	"github.com/octobees/dealdesk/api/internal/service"
	"github.com/octobees/dealdesk/api/internal/signature"
)

// IngestPath is the route of the lead webhook.
const IngestPath = "/ingest-lead"

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, " + signature.Header
	corsAllowMethods = "POST, OPTIONS"
)

// IngestProcessor runs the three ingestion flows.
type IngestProcessor interface {
	ProcessIntentLead(ctx context.Context, req service.IntentLeadRequest) (*service.LegacyResult, error)
	CreateTypedLead(ctx context.Context, req service.TypedLeadRequest) (*service.TypedResult, error)
	AttachValuation(ctx context.Context, req service.ValuationPDFRequest) (*service.ValuationResult, error)
}

// LegacyIngestResponse is returned for sell/buy submissions.
type LegacyIngestResponse struct {
	OK              bool       `json:"ok"`
	InboundID       uuid.UUID  `json:"inbound_id"`
	DedupeKey       string     `json:"dedupe_key"`
	Status          string     `json:"status"`
	ProcessingError string     `json:"processing_error,omitempty"`
	CompanyID       *uuid.UUID `json:"company_id,omitempty"`
	ContactID       *uuid.UUID `json:"contact_id,omitempty"`
	LeadID          *uuid.UUID `json:"lead_id,omitempty"`
}

// TypedIngestResponse is returned for typed integrations.
type TypedIngestResponse struct {
	Success bool      `json:"success"`
	ID      uuid.UUID `json:"id"`
	URL     string    `json:"url,omitempty"`
}

// IngestHandler receives signed lead webhooks.
type IngestHandler struct {
	processor IngestProcessor
	secret    string
	maxBody   int64
	logger    *zap.Logger
}

// NewIngestHandler constructs an IngestHandler. An empty secret is reported as
// a misconfiguration on every request.
func NewIngestHandler(processor IngestProcessor, secret string, maxBody int64, logger *zap.Logger) *IngestHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestHandler{processor: processor, secret: secret, maxBody: maxBody, logger: logger}
}

// Handle serves every method on /ingest-lead.
func (h *IngestHandler) Handle(c echo.Context) error {
	header := c.Response().Header()
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)

	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodPost:
	default:
		header.Set(echo.HeaderAllow, corsAllowMethods)
		return IngestError(c, http.StatusMethodNotAllowed, KindMethodNotAllowed, "only POST is supported", nil)
	}

	if h.secret == "" {
		h.logger.Error("ingest secret is not configured")
		return IngestError(c, http.StatusInternalServerError, KindMisconfigured, "ingest secret is not configured", nil)
	}
	sig := c.Request().Header.Get(signature.Header)
	if sig == "" {
		return IngestError(c, http.StatusUnauthorized, KindUnauthorized, "missing "+signature.Header+" header", nil)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxBody+1))
	if err != nil {
		return IngestError(c, http.StatusBadRequest, KindInvalidBody, "could not read request body", nil)
	}
	if int64(len(body)) > h.maxBody {
		return IngestError(c, http.StatusRequestEntityTooLarge, KindPayloadTooLarge,
			fmt.Sprintf("body exceeds %d bytes", h.maxBody), nil)
	}
	if !signature.Verify(h.secret, body, sig) {
		return IngestError(c, http.StatusUnauthorized, KindUnauthorized, "invalid signature", nil)
	}

	req, err := service.ParseIngestRequest(body)
	if err != nil {
		return parseError(c, err)
	}

	ctx := c.Request().Context()
	switch r := req.(type) {
	case service.ValuationPDFRequest:
		result, err := h.processor.AttachValuation(ctx, r)
		if err != nil {
			return h.serviceError(c, err)
		}
		return c.JSON(http.StatusOK, TypedIngestResponse{Success: true, ID: result.ID, URL: result.URL})

	case service.TypedLeadRequest:
		result, err := h.processor.CreateTypedLead(ctx, r)
		if err != nil {
			return h.serviceError(c, err)
		}
		return c.JSON(http.StatusOK, TypedIngestResponse{Success: true, ID: result.ID})

	case service.IntentLeadRequest:
		result, err := h.processor.ProcessIntentLead(ctx, r)
		if err != nil {
			return h.serviceError(c, err)
		}
		return c.JSON(http.StatusOK, LegacyIngestResponse{
			OK:              true,
			InboundID:       result.InboundID,
			DedupeKey:       result.DedupeKey,
			Status:          string(result.Status),
			ProcessingError: result.Error,
			CompanyID:       result.CompanyID,
			ContactID:       result.ContactID,
			LeadID:          result.LeadID,
		})
	}

	return IngestError(c, http.StatusInternalServerError, KindInternalError, "unsupported request variant", nil)
}

func parseError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidJSON):
		return IngestError(c, http.StatusBadRequest, KindInvalidJSON, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidIntent):
		return IngestError(c, http.StatusBadRequest, KindInvalidIntent, err.Error(), nil)
	case errors.Is(err, service.ErrMissingPDFURL):
		return IngestError(c, http.StatusBadRequest, KindMissingFields, err.Error(), nil)
	default:
		return IngestError(c, http.StatusBadRequest, KindInvalidBody, err.Error(), nil)
	}
}

func (h *IngestHandler) serviceError(c echo.Context, err error) error {
	var upstream *service.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return IngestError(c, http.StatusBadRequest, KindPDFFetchFailed, upstream.Error(), map[string]any{
			"upstream_status": upstream.Status,
			"upstream_body":   upstream.Body,
		})
	case errors.Is(err, service.ErrPDFFetchFailed):
		return IngestError(c, http.StatusBadRequest, KindPDFFetchFailed, err.Error(), nil)
	case errors.Is(err, service.ErrStorageFailed):
		h.logError(c, "valuation storage failed", err)
		return IngestError(c, http.StatusInternalServerError, KindStorageFailed, err.Error(), nil)
	case errors.Is(err, service.ErrInsertFailed):
		h.logError(c, "ingest insert failed", err)
		return IngestError(c, http.StatusInternalServerError, KindInsertFailed, err.Error(), nil)
	default:
		h.logError(c, "ingest failed", err)
		return IngestError(c, http.StatusInternalServerError, KindInternalError, "unexpected error", nil)
	}
}

func (h *IngestHandler) logError(c echo.Context, msg string, err error) {
	h.logger.Error(msg, zap.String("request_id", middleware.RequestIDFromContext(c)), zap.Error(err))
}
