package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/auth"
	"github.com/octobees/dealdesk/api/internal/config"
	"github.com/octobees/dealdesk/api/internal/handler"
	"github.com/octobees/dealdesk/api/internal/metrics"
	middlewarepkg "github.com/octobees/dealdesk/api/internal/middleware"
)

// RODRoles may run retention automation jobs.
var RODRoles = []string{"admin", "marketing"}

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Ingest *handler.IngestHandler
	ROD    *handler.RODHandler
}

// New builds an Echo instance with the shared middleware chain and error handler.
func New(logger *zap.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())
	if m != nil {
		e.Use(m.Middleware())
	}
	return e
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, m *metrics.Metrics, handlers Handlers) {
	e.GET("/healthz", handlers.Health.Check)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	// Any method is routed so the handler can answer preflight and 405 itself.
	e.Any(handler.IngestPath, handlers.Ingest.Handle, middlewarepkg.RateLimiter(cfg.RateLimitIngest))

	e.POST("/auth/login", handlers.Auth.Login)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))
	secured.POST("/rod-automation", handlers.ROD.Run, middlewarepkg.RequireRole(RODRoles...))
}
