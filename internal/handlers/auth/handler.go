// internal/handlers/auth/handler.go
package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/response"
	"rental-portal/internal/models"
	"rental-portal/internal/session"
)

const RouteGroup = "auth"

// Authenticator checks credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
}

type Handler struct {
	auth     Authenticator
	sessions *session.Manager
	home     string
	logger   logger.Logger
}

func NewHandler(auth Authenticator, sessions *session.Manager, log logger.Logger) *Handler {
	return &Handler{
		auth:     auth,
		sessions: sessions,
		home:     "/dashboard",
		logger:   log.WithFields(map[string]interface{}{"route": RouteGroup}),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/login", h.HandleLogin)
	e.POST("/logout", h.HandleLogout)
	e.GET("/api/session", h.HandleSession)
}

// LoginResponse tells the page who signed in and where to go next.
type LoginResponse struct {
	User     *models.Identity `json:"user"`
	Redirect string           `json:"redirect"`
}

type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *models.Identity `json:"user,omitempty"`
}

func (h *Handler) HandleLogin(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return errors.NewInvalidInputError("malformed login form")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := c.Validate(&creds); err != nil {
		return err
	}

	result, err := h.auth.Login(c.Request().Context(), creds)
	if err != nil {
		h.logger.Info("Login refused", map[string]interface{}{"email": creds.Email, "error": err})
		return err
	}

	id := result.Identity()
	if id.Email == "" {
		id.Email = creds.Email
	}
	if err := h.sessions.SetCookie(c, id); err != nil {
		return errors.NewInternalError(err)
	}

	h.logger.Info("User signed in", map[string]interface{}{"email": id.Email, "role": string(id.Role)})
	return response.Success(c, "Signed in", LoginResponse{
		User:     id,
		Redirect: safeNext(c.QueryParam("next"), h.home),
	})
}

func (h *Handler) HandleLogout(c echo.Context) error {
	h.sessions.ClearCookie(c)
	return response.Success(c, "Signed out", nil)
}

func (h *Handler) HandleSession(c echo.Context) error {
	id := session.FromContext(c)
	return response.Success(c, "", SessionResponse{Authenticated: id != nil, User: id})
}

// safeNext only allows same-site absolute paths as a post-login target.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}
