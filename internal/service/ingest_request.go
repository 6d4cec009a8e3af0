package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/octobees/dealdesk/api/internal/dto"
)

// Parse errors, mapped one to one onto ingest error kinds by the handler.
var (
	ErrInvalidJSON   = errors.New("body is not valid JSON")
	ErrInvalidBody   = errors.New("invalid request body")
	ErrInvalidIntent = errors.New("intent must be \"sell\" or \"buy\"")
	ErrMissingPDFURL = errors.New("data.pdf_url is required")
)

const (
	// TypeValuationPDF is the discriminator of valuation report deliveries.
	TypeValuationPDF = "valuation_pdf"

	IntentSell = "sell"
	IntentBuy  = "buy"

	defaultTypedSource = "webhook"
)

var requestValidator = validator.New()

// IngestRequest is one of ValuationPDFRequest, TypedLeadRequest or IntentLeadRequest.
type IngestRequest interface {
	ingestRequest()
}

// ValuationPDFRequest asks for a remote valuation PDF to be re-hosted and recorded.
type ValuationPDFRequest struct {
	Source string
	Data   dto.ValuationPDFData
}

// TypedLeadRequest is any other discriminated integration payload.
type TypedLeadRequest struct {
	Type   string
	Source string
	Data   map[string]any
	Raw    json.RawMessage
}

// IntentLeadRequest is a legacy sell/buy calculator submission.
type IntentLeadRequest struct {
	Payload dto.LegacyLeadPayload
	Raw     json.RawMessage
}

func (ValuationPDFRequest) ingestRequest() {}
func (TypedLeadRequest) ingestRequest()    {}
func (IntentLeadRequest) ingestRequest()   {}

// ParseIngestRequest decodes a verified webhook body into exactly one request variant.
// A non-empty string "type" wins; otherwise "intent" must be exactly sell or buy.
func ParseIngestRequest(body []byte) (IngestRequest, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidBody)
	}

	typ, err := optionalString(fields["type"])
	if err != nil {
		return nil, fmt.Errorf("%w: type must be a string", ErrInvalidBody)
	}
	if typ != "" {
		return parseTyped(typ, body, fields)
	}

	var intent string
	if err := json.Unmarshal(fields["intent"], &intent); err != nil || (intent != IntentSell && intent != IntentBuy) {
		return nil, ErrInvalidIntent
	}

	var payload dto.LegacyLeadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return IntentLeadRequest{Payload: payload, Raw: json.RawMessage(body)}, nil
}

func parseTyped(typ string, body []byte, fields map[string]json.RawMessage) (IngestRequest, error) {
	source, err := optionalString(fields["source"])
	if err != nil {
		return nil, fmt.Errorf("%w: source must be a string", ErrInvalidBody)
	}

	if typ == TypeValuationPDF {
		return parseValuation(source, fields["data"])
	}

	var data map[string]any
	if raw := fields["data"]; !isNull(raw) {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: data must be an object", ErrInvalidBody)
		}
	}
	if source == "" {
		source = defaultTypedSource
	}
	return TypedLeadRequest{Type: typ, Source: source, Data: data, Raw: json.RawMessage(body)}, nil
}

func parseValuation(source string, raw json.RawMessage) (IngestRequest, error) {
	var data dto.ValuationPDFData
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	}
	data.PDFURL = strings.TrimSpace(data.PDFURL)

	if err := requestValidator.Struct(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return nil, ErrMissingPDFURL
		}
		return nil, fmt.Errorf("%w: data.pdf_url must be an http(s) URL", ErrInvalidBody)
	}

	if data.Source != "" {
		source = data.Source
	}
	if source == "" {
		source = defaultTypedSource
	}
	return ValuationPDFRequest{Source: source, Data: data}, nil
}

// optionalString treats absent and null as empty; any non-string value is an error.
func optionalString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
