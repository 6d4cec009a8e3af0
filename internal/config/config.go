package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// StorageConfig describes the S3-compatible bucket used to re-host valuation PDFs.
type StorageConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port                string
	DatabaseURL         string
	MigrateOnStart      bool
	IngestSecret        string
	DefaultLeadOwnerID  *uuid.UUID
	SupabaseURL         string
	Storage             StorageConfig
	JWTSecret           string
	TokenTTL            time.Duration
	RateLimitIngest     RateLimitConfig
	MaxBodyBytes        int64
	PDFFetchTimeout     time.Duration
	PhoneDefaultRegion  string
	NewsletterWorkerURL string
	LogLevel            string
}

// Load reads configuration from environment variables and applies sane defaults.
// An empty CRM_INGEST_SECRET is reported by the ingest endpoint, not here.
func Load() (*Config, error) {
	supabaseURL := strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		MigrateOnStart:      parseBool(getEnv("DB_MIGRATE", "false")),
		IngestSecret:        os.Getenv("CRM_INGEST_SECRET"),
		SupabaseURL:         supabaseURL,
		JWTSecret:           getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:            parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		PDFFetchTimeout:     parseDuration(getEnv("PDF_FETCH_TIMEOUT", "20s"), 20*time.Second),
		PhoneDefaultRegion:  strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "ES")),
		NewsletterWorkerURL: os.Getenv("NEWSLETTER_WORKER_URL"),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Storage: StorageConfig{
			Bucket:          getEnv("STORAGE_BUCKET", "lead-valuations"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", storageEndpoint(supabaseURL)),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", storagePublicBase(supabaseURL)),
		},
	}

	if raw := strings.TrimSpace(os.Getenv("DEFAULT_LEAD_OWNER_ID")); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_LEAD_OWNER_ID value: %w", err)
		}
		cfg.DefaultLeadOwnerID = &owner
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_INGEST", "120/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_INGEST value: %w", err)
	}
	cfg.RateLimitIngest = rl

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES value: %q", os.Getenv("MAX_BODY_BYTES"))
	}
	cfg.MaxBodyBytes = maxBody

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(input string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return b
}

// Supabase exposes an S3-compatible gateway and a public object route under the project URL.
func storageEndpoint(supabaseURL string) string {
	if supabaseURL == "" {
		return ""
	}
	return supabaseURL + "/storage/v1/s3"
}

func storagePublicBase(supabaseURL string) string {
	if supabaseURL == "" {
		return ""
	}
	return supabaseURL + "/storage/v1/object/public"
}
