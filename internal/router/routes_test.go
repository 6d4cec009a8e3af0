package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/auth"
	"github.com/octobees/dealdesk/api/internal/config"
	"github.com/octobees/dealdesk/api/internal/dto"
	"github.com/octobees/dealdesk/api/internal/handler"
	"github.com/octobees/dealdesk/api/internal/metrics"
	"github.com/octobees/dealdesk/api/internal/service"
)

type noopIngest struct{}

func (noopIngest) ProcessIntentLead(context.Context, service.IntentLeadRequest) (*service.LegacyResult, error) {
	return &service.LegacyResult{}, nil
}

func (noopIngest) CreateTypedLead(context.Context, service.TypedLeadRequest) (*service.TypedResult, error) {
	return &service.TypedResult{}, nil
}

func (noopIngest) AttachValuation(context.Context, service.ValuationPDFRequest) (*service.ValuationResult, error) {
	return &service.ValuationResult{}, nil
}

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, req dto.RODAutomationRequest, _ string) (any, error) {
	return map[string]string{"type": req.Type}, nil
}

type noopAuth struct{}

func (noopAuth) Login(context.Context, string, string) (string, error) { return "token", nil }

func (noopAuth) TokenTTL() time.Duration { return time.Hour }

func newTestServer(t *testing.T, limit config.RateLimitConfig) (*echo.Echo, *auth.JWTManager) {
	t.Helper()
	m := metrics.New()
	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	cfg := &config.Config{RateLimitIngest: limit}

	e := New(zap.NewNop(), m)
	Register(e, cfg, jwtManager, m, Handlers{
		Health: handler.NewHealthHandler(nil),
		Auth:   handler.NewAuthHandler(noopAuth{}),
		Ingest: handler.NewIngestHandler(noopIngest{}, "secret", 1024, zap.NewNop()),
		ROD:    handler.NewRODHandler(echoRunner{}, 1024),
	})
	return e, jwtManager
}

func TestRegister_PublicRoutes(t *testing.T) {
	e, _ := newTestServer(t, config.RateLimitConfig{})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestRegister_IngestRateLimitSkipsPreflight(t *testing.T) {
	e, _ := newTestServer(t, config.RateLimitConfig{Requests: 1, Interval: time.Hour})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, handler.IngestPath, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("preflight %d: expected 200, got %d", i, rec.Code)
		}
	}

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodPost, handler.IngestPath, strings.NewReader(`{}`)))
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("expected unsigned post to be rejected with 401, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodPost, handler.IngestPath, strings.NewReader(`{}`)))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRegister_RODRequiresRole(t *testing.T) {
	e, jwtManager := newTestServer(t, config.RateLimitConfig{})
	body := `{"type":"behavior_scoring"}`

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rod-automation", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	viewer, err := jwtManager.GenerateToken("u1", "viewer@example.com", "viewer")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/rod-automation", strings.NewReader(body))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+viewer)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer role, got %d", rec.Code)
	}

	marketer, err := jwtManager.GenerateToken("u2", "m@example.com", "marketing")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/rod-automation", strings.NewReader(body))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+marketer)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for marketing role, got %d (%s)", rec.Code, rec.Body.String())
	}
}
