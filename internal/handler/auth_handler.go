package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/octobees/dealdesk/api/internal/dto"
	"github.com/octobees/dealdesk/api/internal/service"
)

// Authenticator issues access tokens for operator credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	TokenTTL() time.Duration
}

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	authService Authenticator
	validate    *validator.Validate
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService Authenticator) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validator.New()}
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		return Error(c, http.StatusBadRequest, "a valid email and password are required")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		return Error(c, http.StatusInternalServerError, "unable to authenticate")
	}

	return Success(c, http.StatusOK, "login successful", dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.authService.TokenTTL() / time.Second),
	})
}
