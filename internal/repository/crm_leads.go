package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/dealdesk/api/internal/entity"
)

// IntegrationLeadsRepository stores the insert-only records of typed integrations.
type IntegrationLeadsRepository interface {
	InsertCRMLead(ctx context.Context, lead *entity.CRMLead) error
	InsertValuation(ctx context.Context, valuation *entity.LeadValuation) error
}

// PGXIntegrationLeadsRepository implements IntegrationLeadsRepository using pgx.
type PGXIntegrationLeadsRepository struct {
	pool pgxPool
}

// NewPGXIntegrationLeadsRepository wires a pgx backed repository.
func NewPGXIntegrationLeadsRepository(pool *pgxpool.Pool) *PGXIntegrationLeadsRepository {
	return &PGXIntegrationLeadsRepository{pool: pool}
}

// InsertCRMLead writes one generic lead with its payload preserved verbatim.
func (r *PGXIntegrationLeadsRepository) InsertCRMLead(ctx context.Context, lead *entity.CRMLead) error {
	if lead == nil {
		return fmt.Errorf("crm lead payload is nil")
	}

	payload := lead.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	status := lead.Status
	if status == "" {
		status = entity.LeadStatusNew
	}

	err := r.pool.QueryRow(ctx, `
        INSERT INTO crm_leads (lead_type, full_name, email, phone, company, status, source, payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
        RETURNING id, created_at
    `,
		lead.LeadType,
		stringOrNil(lead.FullName),
		stringOrNil(lead.Email),
		stringOrNil(lead.Phone),
		stringOrNil(lead.Company),
		status,
		stringOrNil(lead.Source),
		string(payload),
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert crm lead: %w", err)
	}
	lead.Status = status

	return nil
}

// InsertValuation records a pointer to a re-hosted valuation PDF.
func (r *PGXIntegrationLeadsRepository) InsertValuation(ctx context.Context, valuation *entity.LeadValuation) error {
	if valuation == nil {
		return fmt.Errorf("valuation payload is nil")
	}

	tags := valuation.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.pool.QueryRow(ctx, `
        INSERT INTO lead_valuations (source, pdf_url, storage_path, company, result, tags)
        VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6)
        RETURNING id, created_at
    `,
		valuation.Source,
		valuation.PDFURL,
		valuation.StoragePath,
		jsonOrNil(valuation.Company),
		jsonOrNil(valuation.Result),
		tags,
	).Scan(&valuation.ID, &valuation.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead valuation: %w", err)
	}

	return nil
}

var _ IntegrationLeadsRepository = (*PGXIntegrationLeadsRepository)(nil)
