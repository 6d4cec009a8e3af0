package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company is a prospect or client organisation tracked by the CRM.
type Company struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	TaxID          *string   `json:"tax_id,omitempty"`
	Industry       *string   `json:"industry,omitempty"`
	Revenue        *float64  `json:"revenue,omitempty"`
	EBITDA         *float64  `json:"ebitda,omitempty"`
	Location       *string   `json:"location,omitempty"`
	YearsOperation *int      `json:"years_operation,omitempty"`
	EmployeesRange *string   `json:"employees_range,omitempty"`
	OwnerID        uuid.UUID `json:"owner_id"`
	SourceTable    *string   `json:"source_table,omitempty"`
	ExternalID     *string   `json:"external_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contact is a person reachable by email, optionally attached to a company.
type Contact struct {
	ID        uuid.UUID  `json:"id"`
	FullName  *string    `json:"full_name,omitempty"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Source    *string    `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Lead is a qualified opportunity assigned to an owner.
type Lead struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	CompanyID      *uuid.UUID `json:"company_id,omitempty"`
	ContactID      *uuid.UUID `json:"contact_id,omitempty"`
	Title          string     `json:"title"`
	Intent         string     `json:"intent"`
	Status         string     `json:"status"`
	Source         *string    `json:"source,omitempty"`
	EstimatedValue *float64   `json:"estimated_value,omitempty"`
	InboundLeadID  *uuid.UUID `json:"inbound_lead_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LeadStatusNew is the status every freshly ingested lead starts in.
const LeadStatusNew = "new"
