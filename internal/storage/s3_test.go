package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type stubPutClient struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (s *stubPutClient) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.input = params
	if params.Body != nil {
		s.body, _ = io.ReadAll(params.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	client := &stubPutClient{}
	store := newS3Store(client, "lead-valuations", "https://project.supabase.co/storage/v1/object/public/")

	err := store.Put(context.Background(), "ingested/2026/report.pdf", "application/pdf", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(client.input.Bucket) != "lead-valuations" || aws.ToString(client.input.Key) != "ingested/2026/report.pdf" {
		t.Fatalf("unexpected put input: %+v", client.input)
	}
	if aws.ToString(client.input.ContentType) != "application/pdf" {
		t.Fatalf("unexpected content type: %s", aws.ToString(client.input.ContentType))
	}
	if string(client.body) != "%PDF-1.7" {
		t.Fatalf("unexpected body: %q", client.body)
	}

	want := "https://project.supabase.co/storage/v1/object/public/lead-valuations/ingested/2026/report.pdf"
	if got := store.PublicURL("ingested/2026/report.pdf"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestS3Store_PutError(t *testing.T) {
	store := newS3Store(&stubPutClient{err: errors.New("access denied")}, "bucket", "")
	if err := store.Put(context.Background(), "k", "", nil); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if err := store.Put(context.Background(), "", "", nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestValuationKey(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "basename", source: "https://cdn.example.com/reports/Acme%20Valuation.pdf?sig=1", want: "ingested/2025/Acme_Valuation.pdf"},
		{name: "plain", source: "https://cdn.example.com/x/report-1.pdf", want: "ingested/2025/report-1.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValuationKey(tt.source, now); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	generated := ValuationKey("https://cdn.example.com/", now)
	if !strings.HasPrefix(generated, "ingested/2025/") || !strings.HasSuffix(generated, ".pdf") {
		t.Fatalf("expected generated pdf name, got %s", generated)
	}
}
