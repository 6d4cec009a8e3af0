package service

import (
	"errors"
	"testing"
)

func TestParseIngestRequest_Variants(t *testing.T) {
	tests := map[string]struct {
		body    string
		check   func(t *testing.T, req IngestRequest)
		wantErr error
	}{
		"valuation pdf": {
			body: `{"type":"valuation_pdf","data":{"pdf_url":"https://cdn.example.com/r.pdf","tags":["q3"],"result":{"ev":1}}}`,
			check: func(t *testing.T, req IngestRequest) {
				v, ok := req.(ValuationPDFRequest)
				if !ok {
					t.Fatalf("expected ValuationPDFRequest, got %T", req)
				}
				if v.Data.PDFURL != "https://cdn.example.com/r.pdf" || v.Source != "webhook" || len(v.Data.Tags) != 1 {
					t.Fatalf("unexpected request: %+v", v)
				}
			},
		},
		"valuation source from data": {
			body: `{"type":"valuation_pdf","source":"top","data":{"pdf_url":"http://x.io/a.pdf","source":"calculator"}}`,
			check: func(t *testing.T, req IngestRequest) {
				if v := req.(ValuationPDFRequest); v.Source != "calculator" {
					t.Fatalf("expected data.source to win, got %s", v.Source)
				}
			},
		},
		"typed lead": {
			body: `{"type":"contact_form","source":"landing","data":{"email":"a@b.io"}}`,
			check: func(t *testing.T, req IngestRequest) {
				v, ok := req.(TypedLeadRequest)
				if !ok {
					t.Fatalf("expected TypedLeadRequest, got %T", req)
				}
				if v.Type != "contact_form" || v.Source != "landing" || v.Data["email"] != "a@b.io" {
					t.Fatalf("unexpected request: %+v", v)
				}
				if string(v.Raw) == "" {
					t.Fatalf("expected raw payload to be kept")
				}
			},
		},
		"type wins over intent": {
			body: `{"type":"newsletter","intent":"sell"}`,
			check: func(t *testing.T, req IngestRequest) {
				if _, ok := req.(TypedLeadRequest); !ok {
					t.Fatalf("expected TypedLeadRequest, got %T", req)
				}
			},
		},
		"null type falls through to intent": {
			body: `{"type":null,"intent":"buy","contact":{"email":"x@y.es"}}`,
			check: func(t *testing.T, req IngestRequest) {
				v, ok := req.(IntentLeadRequest)
				if !ok {
					t.Fatalf("expected IntentLeadRequest, got %T", req)
				}
				if v.Payload.Intent != "buy" || v.Payload.Contact.Email != "x@y.es" {
					t.Fatalf("unexpected payload: %+v", v.Payload)
				}
			},
		},
		"legacy with string numbers": {
			body: `{"intent":"sell","company":{"revenue":"1.250.000","years_operation":"12"},"calc_summary":{"final_value":3400000}}`,
			check: func(t *testing.T, req IngestRequest) {
				p := req.(IntentLeadRequest).Payload
				if r := p.Company.Revenue.Ptr(); r == nil || *r != 1250000 {
					t.Fatalf("unexpected revenue: %v", r)
				}
				if y := p.Company.YearsOperation.IntPtr(); y == nil || *y != 12 {
					t.Fatalf("unexpected years: %v", y)
				}
			},
		},
		"invalid json":               {body: `{"intent":`, wantErr: ErrInvalidJSON},
		"array body":                 {body: `[1,2]`, wantErr: ErrInvalidBody},
		"scalar body":                {body: `"sell"`, wantErr: ErrInvalidBody},
		"numeric type":               {body: `{"type":5}`, wantErr: ErrInvalidBody},
		"typed data not object":      {body: `{"type":"x","data":"nope"}`, wantErr: ErrInvalidBody},
		"missing intent":             {body: `{"contact":{}}`, wantErr: ErrInvalidIntent},
		"unknown intent":             {body: `{"intent":"rent"}`, wantErr: ErrInvalidIntent},
		"intent wrong case":          {body: `{"intent":"SELL"}`, wantErr: ErrInvalidIntent},
		"intent leading space":       {body: `{"intent":" sell"}`, wantErr: ErrInvalidIntent},
		"intent padded":              {body: `{"intent":"  buy  "}`, wantErr: ErrInvalidIntent},
		"intent not a string":        {body: `{"intent":1}`, wantErr: ErrInvalidIntent},
		"empty type unknown intent":  {body: `{"type":"","intent":"x"}`, wantErr: ErrInvalidIntent},
		"valuation without pdf":      {body: `{"type":"valuation_pdf","data":{"tags":[]}}`, wantErr: ErrMissingPDFURL},
		"valuation without data":     {body: `{"type":"valuation_pdf"}`, wantErr: ErrMissingPDFURL},
		"valuation bad url":          {body: `{"type":"valuation_pdf","data":{"pdf_url":"ftp://x/y.pdf"}}`, wantErr: ErrInvalidBody},
		"legacy contact wrong shape": {body: `{"intent":"sell","contact":"ana"}`, wantErr: ErrInvalidBody},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := ParseIngestRequest([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v (req %T)", tt.wantErr, err, req)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, req)
		})
	}
}
