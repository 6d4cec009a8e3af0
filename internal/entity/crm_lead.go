package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CRMLead is the flat, insert-only record produced by typed webhook integrations.
type CRMLead struct {
	ID        uuid.UUID       `json:"id"`
	LeadType  string          `json:"lead_type"`
	FullName  *string         `json:"full_name,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	Company   *string         `json:"company,omitempty"`
	Status    string          `json:"status"`
	Source    *string         `json:"source,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// LeadValuation points at a valuation report re-hosted in object storage.
type LeadValuation struct {
	ID          uuid.UUID       `json:"id"`
	Source      string          `json:"source"`
	PDFURL      string          `json:"pdf_url"`
	StoragePath string          `json:"storage_path"`
	Company     json.RawMessage `json:"company,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
}
