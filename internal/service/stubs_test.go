package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/dealdesk/api/internal/entity"
	"github.com/octobees/dealdesk/api/internal/repository"
)

type stubInboundRepo struct {
	inserted  []*entity.InboundLead
	outcomes  []entity.InboundOutcome
	insertErr error
	markErr   error
}

func (s *stubInboundRepo) Insert(ctx context.Context, lead *entity.InboundLead) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	s.inserted = append(s.inserted, lead)
	return nil
}

func (s *stubInboundRepo) MarkOutcome(ctx context.Context, dedupeKey string, outcome entity.InboundOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.outcomes = append(s.outcomes, outcome)
	return s.markErr
}

type stubCRMRepo struct {
	byTaxID   map[string]*entity.Company
	byName    map[string]*entity.Company
	companies []*entity.Company
	contacts  []*entity.Contact
	leads     []*entity.Lead

	createCompanyErr error
	onCreateCompany  func()
	contactErr       error
	leadErr          error
}

func (s *stubCRMRepo) FindCompanyByTaxID(ctx context.Context, taxID string) (*entity.Company, error) {
	if c, ok := s.byTaxID[taxID]; ok {
		return c, nil
	}
	return nil, repository.ErrCompanyNotFound
}

func (s *stubCRMRepo) FindCompanyByName(ctx context.Context, name string) (*entity.Company, error) {
	if c, ok := s.byName[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, repository.ErrCompanyNotFound
}

func (s *stubCRMRepo) CreateCompany(ctx context.Context, company *entity.Company) (bool, error) {
	if s.onCreateCompany != nil {
		s.onCreateCompany()
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.createCompanyErr != nil {
		return false, s.createCompanyErr
	}
	company.ID = uuid.New()
	s.companies = append(s.companies, company)
	return true, nil
}

func (s *stubCRMRepo) UpsertContact(ctx context.Context, contact *entity.Contact) (bool, error) {
	if s.contactErr != nil {
		return false, s.contactErr
	}
	contact.ID = uuid.New()
	s.contacts = append(s.contacts, contact)
	return true, nil
}

func (s *stubCRMRepo) CreateLead(ctx context.Context, lead *entity.Lead) error {
	if s.leadErr != nil {
		return s.leadErr
	}
	lead.ID = uuid.New()
	s.leads = append(s.leads, lead)
	return nil
}

type stubIntegrationsRepo struct {
	crmLeads   []*entity.CRMLead
	valuations []*entity.LeadValuation
	err        error
}

func (s *stubIntegrationsRepo) InsertCRMLead(ctx context.Context, lead *entity.CRMLead) error {
	if s.err != nil {
		return s.err
	}
	lead.ID = uuid.New()
	s.crmLeads = append(s.crmLeads, lead)
	return nil
}

func (s *stubIntegrationsRepo) InsertValuation(ctx context.Context, valuation *entity.LeadValuation) error {
	if s.err != nil {
		return s.err
	}
	valuation.ID = uuid.New()
	s.valuations = append(s.valuations, valuation)
	return nil
}

type stubStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (s *stubStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
		s.types = map[string]string{}
	}
	s.objects[key] = body
	s.types[key] = contentType
	return nil
}

func (s *stubStore) PublicURL(key string) string {
	return "https://storage.example.com/public/lead-valuations/" + key
}

type stubDoer struct {
	status int
	body   string
	header http.Header
	err    error
	calls  []*http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	header := s.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

var errBoom = errors.New("boom")
