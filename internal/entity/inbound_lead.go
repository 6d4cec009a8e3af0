package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus tracks where a legacy inbound lead is in the ingestion pipeline.
type ProcessingStatus string

const (
	StatusQueuedMissingOwner ProcessingStatus = "queued_missing_owner"
	StatusProcessing         ProcessingStatus = "processing"
	StatusProcessed          ProcessingStatus = "processed"
	StatusError              ProcessingStatus = "error"
)

// InboundLead is the audit record of one legacy (intent based) webhook delivery.
type InboundLead struct {
	ID               uuid.UUID        `json:"id"`
	Intent           string           `json:"intent"`
	ContactName      *string          `json:"contact_name,omitempty"`
	ContactEmail     *string          `json:"contact_email,omitempty"`
	ContactPhone     *string          `json:"contact_phone,omitempty"`
	CompanyName      *string          `json:"company_name,omitempty"`
	TaxID            *string          `json:"tax_id,omitempty"`
	Industry         *string          `json:"industry,omitempty"`
	Revenue          *float64         `json:"revenue,omitempty"`
	EBITDA           *float64         `json:"ebitda,omitempty"`
	Location         *string          `json:"location,omitempty"`
	YearsOperation   *int             `json:"years_operation,omitempty"`
	EmployeesRange   *string          `json:"employees_range,omitempty"`
	ValuationFinal   *float64         `json:"valuation_final,omitempty"`
	ValuationMin     *float64         `json:"valuation_min,omitempty"`
	ValuationMax     *float64         `json:"valuation_max,omitempty"`
	MultipleUsed     *float64         `json:"multiple_used,omitempty"`
	UTMSource        *string          `json:"utm_source,omitempty"`
	UTMMedium        *string          `json:"utm_medium,omitempty"`
	UTMCampaign      *string          `json:"utm_campaign,omitempty"`
	UTMTerm          *string          `json:"utm_term,omitempty"`
	UTMContent       *string          `json:"utm_content,omitempty"`
	VisitorID        *string          `json:"visitor_id,omitempty"`
	Source           *string          `json:"source,omitempty"`
	Raw              json.RawMessage  `json:"raw"`
	DedupeKey        string           `json:"dedupe_key"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ProcessingError  *string          `json:"processing_error,omitempty"`
	CompanyID        *uuid.UUID       `json:"company_id,omitempty"`
	ContactID        *uuid.UUID       `json:"contact_id,omitempty"`
	LeadID           *uuid.UUID       `json:"lead_id,omitempty"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// InboundOutcome is the write-back applied to an inbound lead once processing ends.
type InboundOutcome struct {
	Status    ProcessingStatus
	Error     *string
	CompanyID *uuid.UUID
	ContactID *uuid.UUID
	LeadID    *uuid.UUID
}
