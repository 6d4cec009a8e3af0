package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/dealdesk/api/internal/entity"
)

// ErrInboundLeadNotFound is returned when no audit row matches a dedupe key.
var ErrInboundLeadNotFound = errors.New("inbound lead not found")

// InboundLeadsRepository persists the audit trail of legacy webhook deliveries.
type InboundLeadsRepository interface {
	Insert(ctx context.Context, lead *entity.InboundLead) error
	MarkOutcome(ctx context.Context, dedupeKey string, outcome entity.InboundOutcome) error
}

// PGXInboundLeadsRepository implements InboundLeadsRepository using pgx.
type PGXInboundLeadsRepository struct {
	pool pgxPool
}

// NewPGXInboundLeadsRepository wires a pgx backed repository.
func NewPGXInboundLeadsRepository(pool *pgxpool.Pool) *PGXInboundLeadsRepository {
	return &PGXInboundLeadsRepository{pool: pool}
}

const insertInboundLeadSQL = `
        INSERT INTO crm_inbound_leads (
            intent,
            contact_name,
            contact_email,
            contact_phone,
            company_name,
            tax_id,
            industry,
            revenue,
            ebitda,
            location,
            years_operation,
            employees_range,
            valuation_final,
            valuation_min,
            valuation_max,
            multiple_used,
            utm_source,
            utm_medium,
            utm_campaign,
            utm_term,
            utm_content,
            visitor_id,
            source,
            raw,
            dedupe_key,
            processing_status
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
            $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
            $21, $22, $23, $24::jsonb, $25, $26
        )
        RETURNING id, created_at
    `

// Insert writes the audit row and fills in the generated id and timestamp.
func (r *PGXInboundLeadsRepository) Insert(ctx context.Context, lead *entity.InboundLead) error {
	if lead == nil {
		return fmt.Errorf("inbound lead payload is nil")
	}

	raw := lead.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	err := r.pool.QueryRow(ctx, insertInboundLeadSQL,
		lead.Intent,
		stringOrNil(lead.ContactName),
		stringOrNil(lead.ContactEmail),
		stringOrNil(lead.ContactPhone),
		stringOrNil(lead.CompanyName),
		stringOrNil(lead.TaxID),
		stringOrNil(lead.Industry),
		floatOrNil(lead.Revenue),
		floatOrNil(lead.EBITDA),
		stringOrNil(lead.Location),
		intOrNil(lead.YearsOperation),
		stringOrNil(lead.EmployeesRange),
		floatOrNil(lead.ValuationFinal),
		floatOrNil(lead.ValuationMin),
		floatOrNil(lead.ValuationMax),
		floatOrNil(lead.MultipleUsed),
		stringOrNil(lead.UTMSource),
		stringOrNil(lead.UTMMedium),
		stringOrNil(lead.UTMCampaign),
		stringOrNil(lead.UTMTerm),
		stringOrNil(lead.UTMContent),
		stringOrNil(lead.VisitorID),
		stringOrNil(lead.Source),
		string(raw),
		lead.DedupeKey,
		string(lead.ProcessingStatus),
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inbound lead: %w", err)
	}

	return nil
}

// The oldest row sharing the dedupe key wins; later duplicates keep their initial status.
const markInboundOutcomeSQL = `
        UPDATE crm_inbound_leads SET
            processing_status = $2,
            processing_error = $3,
            company_id = COALESCE($4, company_id),
            contact_id = COALESCE($5, contact_id),
            lead_id = COALESCE($6, lead_id),
            processed_at = NOW()
        WHERE id = (
            SELECT id FROM crm_inbound_leads
            WHERE dedupe_key = $1
            ORDER BY created_at ASC, id ASC
            LIMIT 1
        )
    `

// MarkOutcome stamps the terminal status on the first row matching dedupeKey.
func (r *PGXInboundLeadsRepository) MarkOutcome(ctx context.Context, dedupeKey string, outcome entity.InboundOutcome) error {
	if dedupeKey == "" {
		return fmt.Errorf("dedupe key must not be empty")
	}

	cmd, err := r.pool.Exec(ctx, markInboundOutcomeSQL,
		dedupeKey,
		string(outcome.Status),
		stringOrNil(outcome.Error),
		uuidOrNil(outcome.CompanyID),
		uuidOrNil(outcome.ContactID),
		uuidOrNil(outcome.LeadID),
	)
	if err != nil {
		return fmt.Errorf("update inbound lead status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrInboundLeadNotFound
	}
	return nil
}

var _ InboundLeadsRepository = (*PGXInboundLeadsRepository)(nil)
