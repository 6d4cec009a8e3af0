package dto

import "encoding/json"

// LegacyLeadPayload is the body sent by the sell/buy valuation calculator.
type LegacyLeadPayload struct {
	Intent      string            `json:"intent"`
	Contact     LegacyContact     `json:"contact"`
	Company     LegacyCompany     `json:"company"`
	CalcSummary LegacyCalcSummary `json:"calc_summary"`
	UTM         LegacyUTM         `json:"utm"`
	VisitorID   string            `json:"visitor_id"`
	Source      string            `json:"source"`
}

// LegacyContact carries the person and company identity typed into the form.
type LegacyContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	TaxID   string `json:"tax_id"`
}

// LegacyCompany carries the self-reported company profile.
type LegacyCompany struct {
	Industry       string `json:"industry"`
	Revenue        Number `json:"revenue"`
	EBITDA         Number `json:"ebitda"`
	Location       string `json:"location"`
	YearsOperation Number `json:"years_operation"`
	EmployeesRange string `json:"employees_range"`
}

// LegacyCalcSummary is the valuation the calculator showed the visitor.
type LegacyCalcSummary struct {
	FinalValue   Number `json:"final_value"`
	RangeMin     Number `json:"range_min"`
	RangeMax     Number `json:"range_max"`
	MultipleUsed Number `json:"multiple_used"`
}

// LegacyUTM is the marketing attribution captured on the landing page.
type LegacyUTM struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Term     string `json:"term"`
	Content  string `json:"content"`
}

// ValuationPDFData is the data block of a valuation_pdf delivery.
type ValuationPDFData struct {
	PDFURL  string          `json:"pdf_url" validate:"required,http_url"`
	Source  string          `json:"source"`
	Company json.RawMessage `json:"company"`
	Result  json.RawMessage `json:"result"`
	Tags    []string        `json:"tags"`
}
