package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/dto"
	"github.com/octobees/dealdesk/api/internal/entity"
	"github.com/octobees/dealdesk/api/internal/metrics"
	"github.com/octobees/dealdesk/api/internal/repository"
	"github.com/octobees/dealdesk/api/internal/storage"
)

var (
	// ErrInsertFailed reports that the primary record of a request could not be written.
	ErrInsertFailed = errors.New("insert failed")
	// ErrPDFFetchFailed reports that the remote valuation PDF could not be downloaded.
	ErrPDFFetchFailed = errors.New("pdf fetch failed")
	// ErrStorageFailed reports that the downloaded PDF could not be re-hosted.
	ErrStorageFailed = errors.New("storage upload failed")
)

const (
	sourceTableInbound   = "crm_inbound_leads"
	defaultPDFTimeout    = 20 * time.Second
	defaultMaxPDFBytes   = 25 << 20
	upstreamExcerptBytes = 512
)

// UpstreamError is returned when the PDF host answers with a non-2xx status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pdf host responded %d: %s", e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrPDFFetchFailed }

// HTTPDoer is the subset of *http.Client used to download PDFs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// IngestOptions carries per-deployment settings of the ingestion pipeline.
type IngestOptions struct {
	// DefaultOwnerID owns every company, contact and lead created from legacy
	// submissions. When nil, submissions are only recorded as queued_missing_owner.
	DefaultOwnerID  *uuid.UUID
	PhoneRegion     string
	PDFFetchTimeout time.Duration
	MaxPDFBytes     int64
	Now             func() time.Time
}

// IngestDeps groups the collaborators of IngestService.
type IngestDeps struct {
	Inbound      repository.InboundLeadsRepository
	CRM          repository.CRMRepository
	Integrations repository.IntegrationLeadsRepository
	Store        storage.ObjectStore
	HTTPClient   HTTPDoer
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// IngestService turns verified webhook requests into CRM records.
type IngestService struct {
	inbound      repository.InboundLeadsRepository
	crm          repository.CRMRepository
	integrations repository.IntegrationLeadsRepository
	store        storage.ObjectStore
	http         HTTPDoer
	logger       *zap.Logger
	metrics      *metrics.Metrics
	normalizer   *ContactNormalizer
	opts         IngestOptions
}

// LegacyResult describes what a sell/buy submission produced.
type LegacyResult struct {
	InboundID uuid.UUID
	DedupeKey string
	Status    entity.ProcessingStatus
	Error     string
	CompanyID *uuid.UUID
	ContactID *uuid.UUID
	LeadID    *uuid.UUID
}

// TypedResult is the row created for a generic typed payload.
type TypedResult struct {
	ID uuid.UUID
}

// ValuationResult is the recorded valuation and its public URL.
type ValuationResult struct {
	ID  uuid.UUID
	URL string
}

// NewIngestService wires the ingestion pipeline.
func NewIngestService(deps IngestDeps, opts IngestOptions) *IngestService {
	if opts.PDFFetchTimeout <= 0 {
		opts.PDFFetchTimeout = defaultPDFTimeout
	}
	if opts.MaxPDFBytes <= 0 {
		opts.MaxPDFBytes = defaultMaxPDFBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.PDFFetchTimeout}
	}
	return &IngestService{
		inbound:      deps.Inbound,
		crm:          deps.CRM,
		integrations: deps.Integrations,
		store:        deps.Store,
		http:         client,
		logger:       logger,
		metrics:      deps.Metrics,
		normalizer:   NewContactNormalizer(opts.PhoneRegion),
		opts:         opts,
	}
}

// DedupeKey joins lowercased email, lowercased company name and visitor id
// with "|". When all three are blank a random id is returned instead.
func DedupeKey(email, company, visitorID string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	company = strings.ToLower(strings.TrimSpace(company))
	visitorID = strings.TrimSpace(visitorID)
	if email == "" && company == "" && visitorID == "" {
		return uuid.NewString()
	}
	return email + "|" + company + "|" + visitorID
}

// ProcessIntentLead records the submission in the audit table and, when an
// owner is configured, resolves or creates the company, contact and lead it
// describes. Processing failures are written back to the audit row and
// reported through LegacyResult; only a failed audit insert returns an error.
func (s *IngestService) ProcessIntentLead(ctx context.Context, req IntentLeadRequest) (*LegacyResult, error) {
	// accepted submissions run to completion; client disconnects do not cancel them
	ctx = context.WithoutCancel(ctx)

	p := req.Payload
	key := DedupeKey(p.Contact.Email, p.Contact.Company, p.VisitorID)

	status := entity.StatusProcessing
	if s.opts.DefaultOwnerID == nil {
		status = entity.StatusQueuedMissingOwner
	}

	record := s.buildInboundLead(p, req.Raw, key, status)
	if err := s.inbound.Insert(ctx, record); err != nil {
		s.metrics.ObserveIngest("intent", "insert_failed")
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	result := &LegacyResult{InboundID: record.ID, DedupeKey: key, Status: status}
	logger := s.logger.With(
		zap.Stringer("inbound_id", record.ID),
		zap.String("dedupe_key", key),
		zap.String("intent", p.Intent),
	)

	if s.opts.DefaultOwnerID == nil {
		logger.Warn("inbound lead queued without default owner")
		s.finish(result)
		return result, nil
	}

	err := s.link(ctx, *s.opts.DefaultOwnerID, record, p, result)
	if err == nil {
		err = s.inbound.MarkOutcome(ctx, key, entity.InboundOutcome{
			Status:    entity.StatusProcessed,
			CompanyID: result.CompanyID,
			ContactID: result.ContactID,
			LeadID:    result.LeadID,
		})
	}
	if err != nil {
		msg := err.Error()
		logger.Error("inbound lead processing failed", zap.Error(err))
		result.Status = entity.StatusError
		result.Error = msg
		if werr := s.inbound.MarkOutcome(ctx, key, entity.InboundOutcome{Status: entity.StatusError, Error: &msg}); werr != nil {
			logger.Error("audit status write-back failed", zap.Error(werr), zap.String("processing_error", msg))
		}
		s.finish(result)
		return result, nil
	}

	result.Status = entity.StatusProcessed
	logger.Info("inbound lead processed",
		zap.Stringp("company_id", uuidString(result.CompanyID)),
		zap.Stringp("contact_id", uuidString(result.ContactID)),
		zap.Stringp("lead_id", uuidString(result.LeadID)),
	)
	s.finish(result)
	return result, nil
}

func (s *IngestService) finish(result *LegacyResult) {
	s.metrics.ObserveIngest("intent", string(result.Status))
	s.metrics.ObserveInboundStatus(string(result.Status))
}

func (s *IngestService) link(ctx context.Context, owner uuid.UUID, record *entity.InboundLead, p dto.LegacyLeadPayload, result *LegacyResult) error {
	if record.CompanyName != nil {
		company, err := s.resolveCompany(ctx, owner, record)
		if err != nil {
			return err
		}
		result.CompanyID = &company.ID
	}

	if record.ContactEmail == nil {
		return nil
	}

	contact := &entity.Contact{
		FullName:  record.ContactName,
		Email:     *record.ContactEmail,
		Phone:     record.ContactPhone,
		CompanyID: result.CompanyID,
		OwnerID:   owner,
		Source:    stringPtr(sourceTableInbound),
	}
	if _, err := s.crm.UpsertContact(ctx, contact); err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	result.ContactID = &contact.ID

	lead := &entity.Lead{
		OwnerID:        owner,
		CompanyID:      result.CompanyID,
		ContactID:      result.ContactID,
		Title:          leadTitle(p.Intent, record),
		Intent:         p.Intent,
		Source:         record.Source,
		EstimatedValue: record.ValuationFinal,
		InboundLeadID:  &record.ID,
	}
	if err := s.crm.CreateLead(ctx, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	result.LeadID = &lead.ID
	return nil
}

func (s *IngestService) resolveCompany(ctx context.Context, owner uuid.UUID, record *entity.InboundLead) (*entity.Company, error) {
	if record.TaxID != nil {
		company, err := s.crm.FindCompanyByTaxID(ctx, *record.TaxID)
		if err == nil {
			return company, nil
		}
		if !errors.Is(err, repository.ErrCompanyNotFound) {
			return nil, fmt.Errorf("resolve company by tax id: %w", err)
		}
	}

	company, err := s.crm.FindCompanyByName(ctx, *record.CompanyName)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, repository.ErrCompanyNotFound) {
		return nil, fmt.Errorf("resolve company by name: %w", err)
	}

	company = &entity.Company{
		Name:           *record.CompanyName,
		TaxID:          record.TaxID,
		Industry:       record.Industry,
		Revenue:        record.Revenue,
		EBITDA:         record.EBITDA,
		Location:       record.Location,
		YearsOperation: record.YearsOperation,
		EmployeesRange: record.EmployeesRange,
		OwnerID:        owner,
		SourceTable:    stringPtr(sourceTableInbound),
		ExternalID:     stringPtr(record.ID.String()),
	}
	if _, err := s.crm.CreateCompany(ctx, company); err != nil {
		if errors.Is(err, repository.ErrCompanyTaxIDTaken) && record.TaxID != nil {
			existing, findErr := s.crm.FindCompanyByTaxID(ctx, *record.TaxID)
			if findErr != nil {
				return nil, fmt.Errorf("re-read company by tax id: %w", findErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

func (s *IngestService) buildInboundLead(p dto.LegacyLeadPayload, raw json.RawMessage, key string, status entity.ProcessingStatus) *entity.InboundLead {
	return &entity.InboundLead{
		Intent:           p.Intent,
		ContactName:      optional(p.Contact.Name),
		ContactEmail:     optional(s.normalizer.Email(p.Contact.Email)),
		ContactPhone:     optional(s.normalizer.Phone(p.Contact.Phone)),
		CompanyName:      optional(p.Contact.Company),
		TaxID:            optional(strings.ToUpper(strings.TrimSpace(p.Contact.TaxID))),
		Industry:         optional(p.Company.Industry),
		Revenue:          p.Company.Revenue.Ptr(),
		EBITDA:           p.Company.EBITDA.Ptr(),
		Location:         optional(p.Company.Location),
		YearsOperation:   p.Company.YearsOperation.IntPtr(),
		EmployeesRange:   optional(p.Company.EmployeesRange),
		ValuationFinal:   p.CalcSummary.FinalValue.Ptr(),
		ValuationMin:     p.CalcSummary.RangeMin.Ptr(),
		ValuationMax:     p.CalcSummary.RangeMax.Ptr(),
		MultipleUsed:     p.CalcSummary.MultipleUsed.Ptr(),
		UTMSource:        optional(p.UTM.Source),
		UTMMedium:        optional(p.UTM.Medium),
		UTMCampaign:      optional(p.UTM.Campaign),
		UTMTerm:          optional(p.UTM.Term),
		UTMContent:       optional(p.UTM.Content),
		VisitorID:        optional(p.VisitorID),
		Source:           optional(p.Source),
		Raw:              raw,
		DedupeKey:        key,
		ProcessingStatus: status,
	}
}

func leadTitle(intent string, record *entity.InboundLead) string {
	prefix := "Sell-side"
	if intent == IntentBuy {
		prefix = "Buy-side"
	}
	for _, candidate := range []*string{record.CompanyName, record.ContactName, record.ContactEmail} {
		if candidate != nil {
			return prefix + ": " + *candidate
		}
	}
	return prefix + " inbound lead"
}

// CreateTypedLead stores a generic integration payload verbatim together with
// the contact fields that could be recognised in it.
func (s *IngestService) CreateTypedLead(ctx context.Context, req TypedLeadRequest) (*TypedResult, error) {
	var top map[string]any
	_ = json.Unmarshal(req.Raw, &top)

	sources := []map[string]any{req.Data, nestedObject(req.Data, "contact"), top}

	name := firstString(sources, "full_name", "name", "nombre")
	if name == "" {
		first := firstString(sources, "first_name")
		last := firstString(sources, "last_name")
		name = strings.TrimSpace(first + " " + last)
	}

	lead := &entity.CRMLead{
		LeadType: req.Type,
		FullName: optional(name),
		Email:    optional(s.normalizer.Email(firstString(sources, "email", "correo"))),
		Phone:    optional(s.normalizer.Phone(firstString(sources, "phone", "telefono", "tel"))),
		Company:  optional(firstString(sources, "company", "company_name", "empresa")),
		Status:   entity.LeadStatusNew,
		Source:   optional(req.Source),
		Payload:  req.Raw,
	}
	if err := s.integrations.InsertCRMLead(ctx, lead); err != nil {
		s.metrics.ObserveIngest("typed", "insert_failed")
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	s.logger.Info("typed lead stored", zap.String("type", req.Type), zap.Stringer("id", lead.ID))
	s.metrics.ObserveIngest("typed", "created")
	return &TypedResult{ID: lead.ID}, nil
}

// AttachValuation downloads the referenced PDF, re-hosts it in object storage
// and records a pointer row.
func (s *IngestService) AttachValuation(ctx context.Context, req ValuationPDFRequest) (*ValuationResult, error) {
	body, contentType, err := s.fetchPDF(ctx, req.Data.PDFURL)
	if err != nil {
		s.metrics.ObserveIngest(TypeValuationPDF, "fetch_failed")
		return nil, err
	}

	if s.store == nil {
		s.metrics.ObserveIngest(TypeValuationPDF, "storage_failed")
		return nil, fmt.Errorf("%w: object storage is not configured", ErrStorageFailed)
	}
	key := storage.ValuationKey(req.Data.PDFURL, s.opts.Now())
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		s.metrics.ObserveIngest(TypeValuationPDF, "storage_failed")
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	publicURL := s.store.PublicURL(key)

	valuation := &entity.LeadValuation{
		Source:      req.Source,
		PDFURL:      publicURL,
		StoragePath: key,
		Company:     req.Data.Company,
		Result:      req.Data.Result,
		Tags:        req.Data.Tags,
	}
	if err := s.integrations.InsertValuation(ctx, valuation); err != nil {
		s.metrics.ObserveIngest(TypeValuationPDF, "insert_failed")
		return nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	s.logger.Info("valuation pdf stored",
		zap.Stringer("id", valuation.ID),
		zap.String("storage_path", key),
		zap.Int("bytes", len(body)),
	)
	s.metrics.ObserveIngest(TypeValuationPDF, "created")
	return &ValuationResult{ID: valuation.ID, URL: publicURL}, nil
}

func (s *IngestService) fetchPDF(ctx context.Context, target string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.PDFFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPDFFetchFailed, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPDFFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamExcerptBytes))
		return nil, "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxPDFBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPDFFetchFailed, err)
	}
	if int64(len(body)) > s.opts.MaxPDFBytes {
		return nil, "", fmt.Errorf("%w: document exceeds %d bytes", ErrPDFFetchFailed, s.opts.MaxPDFBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = "application/pdf"
	}
	return body, contentType, nil
}

func nestedObject(data map[string]any, key string) map[string]any {
	if data == nil {
		return nil
	}
	obj, _ := data[key].(map[string]any)
	return obj
}

func firstString(sources []map[string]any, keys ...string) string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, key := range keys {
			if v, ok := src[key].(string); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func stringPtr(value string) *string {
	return &value
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
