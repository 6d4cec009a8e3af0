package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/dealdesk/api/internal/entity"
)

var (
	// ErrCompanyNotFound is returned when no company matches the lookup.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrCompanyTaxIDTaken means a concurrent writer created a company with the same tax id.
	ErrCompanyTaxIDTaken = errors.New("company tax id already exists")
)

const companiesTaxIDConstraint = "companies_tax_id_key"

// CRMRepository resolves and creates the company/contact/lead graph.
type CRMRepository interface {
	FindCompanyByTaxID(ctx context.Context, taxID string) (*entity.Company, error)
	FindCompanyByName(ctx context.Context, name string) (*entity.Company, error)
	CreateCompany(ctx context.Context, company *entity.Company) (created bool, err error)
	UpsertContact(ctx context.Context, contact *entity.Contact) (created bool, err error)
	CreateLead(ctx context.Context, lead *entity.Lead) error
}

// PGXCRMRepository implements CRMRepository using pgx.
type PGXCRMRepository struct {
	pool pgxPool
}

// NewPGXCRMRepository wires a pgx backed repository.
func NewPGXCRMRepository(pool *pgxpool.Pool) *PGXCRMRepository {
	return &PGXCRMRepository{pool: pool}
}

const companyColumns = `id, name, tax_id, industry, owner_id, created_at, updated_at`

// FindCompanyByTaxID looks a company up by its exact tax identifier.
func (r *PGXCRMRepository) FindCompanyByTaxID(ctx context.Context, taxID string) (*entity.Company, error) {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, ErrCompanyNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE tax_id = $1 LIMIT 1`, taxID)
	company, err := scanCompany(row)
	if err != nil {
		return nil, fmt.Errorf("query company by tax id: %w", err)
	}
	return company, nil
}

// FindCompanyByName looks a company up by case-insensitive name.
func (r *PGXCRMRepository) FindCompanyByName(ctx context.Context, name string) (*entity.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCompanyNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE lower(name) = lower($1) ORDER BY created_at ASC LIMIT 1`, name)
	company, err := scanCompany(row)
	if err != nil {
		return nil, fmt.Errorf("query company by name: %w", err)
	}
	return company, nil
}

const createCompanySQL = `
        INSERT INTO companies (
            name,
            tax_id,
            industry,
            revenue,
            ebitda,
            location,
            years_operation,
            employees_range,
            owner_id,
            source_table,
            external_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT ((lower(name))) DO UPDATE SET
            updated_at = companies.updated_at
        RETURNING id, created_at, updated_at, xmax = 0
    `

// CreateCompany inserts the company, or returns the existing row sharing its
// case-insensitive name. created reports whether a new row was written.
func (r *PGXCRMRepository) CreateCompany(ctx context.Context, company *entity.Company) (bool, error) {
	if company == nil {
		return false, fmt.Errorf("company payload is nil")
	}

	var created bool
	err := r.pool.QueryRow(ctx, createCompanySQL,
		company.Name,
		stringOrNil(company.TaxID),
		stringOrNil(company.Industry),
		floatOrNil(company.Revenue),
		floatOrNil(company.EBITDA),
		stringOrNil(company.Location),
		intOrNil(company.YearsOperation),
		stringOrNil(company.EmployeesRange),
		company.OwnerID,
		stringOrNil(company.SourceTable),
		stringOrNil(company.ExternalID),
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt, &created)
	if err != nil {
		if isUniqueViolation(err, companiesTaxIDConstraint) {
			return false, fmt.Errorf("%w: %v", ErrCompanyTaxIDTaken, err)
		}
		return false, fmt.Errorf("insert company: %w", err)
	}

	return created, nil
}

const upsertContactSQL = `
        INSERT INTO contacts (full_name, email, phone, company_id, owner_id, source)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (email) DO UPDATE SET
            updated_at = contacts.updated_at
        RETURNING id, company_id, created_at, updated_at, xmax = 0
    `

// UpsertContact resolves a contact by exact email, creating it when absent.
// Existing contacts keep their stored company link.
func (r *PGXCRMRepository) UpsertContact(ctx context.Context, contact *entity.Contact) (bool, error) {
	if contact == nil {
		return false, fmt.Errorf("contact payload is nil")
	}
	if contact.Email == "" {
		return false, fmt.Errorf("contact email must not be empty")
	}

	var (
		created   bool
		companyID uuid.NullUUID
	)
	err := r.pool.QueryRow(ctx, upsertContactSQL,
		stringOrNil(contact.FullName),
		contact.Email,
		stringOrNil(contact.Phone),
		uuidOrNil(contact.CompanyID),
		contact.OwnerID,
		stringOrNil(contact.Source),
	).Scan(&contact.ID, &companyID, &contact.CreatedAt, &contact.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert contact: %w", err)
	}
	contact.CompanyID = nullUUIDToPtr(companyID)

	return created, nil
}

const createLeadSQL = `
        INSERT INTO leads (
            owner_id,
            company_id,
            contact_id,
            title,
            intent,
            status,
            source,
            estimated_value,
            inbound_lead_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at
    `

// CreateLead inserts a new lead.
func (r *PGXCRMRepository) CreateLead(ctx context.Context, lead *entity.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead payload is nil")
	}

	status := lead.Status
	if status == "" {
		status = entity.LeadStatusNew
	}

	err := r.pool.QueryRow(ctx, createLeadSQL,
		lead.OwnerID,
		uuidOrNil(lead.CompanyID),
		uuidOrNil(lead.ContactID),
		lead.Title,
		lead.Intent,
		status,
		stringOrNil(lead.Source),
		floatOrNil(lead.EstimatedValue),
		uuidOrNil(lead.InboundLeadID),
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.Status = status

	return nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		company  entity.Company
		taxID    *string
		industry *string
	)
	if err := row.Scan(&company.ID, &company.Name, &taxID, &industry, &company.OwnerID, &company.CreatedAt, &company.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	company.TaxID = taxID
	company.Industry = industry
	return &company, nil
}

var _ CRMRepository = (*PGXCRMRepository)(nil)
