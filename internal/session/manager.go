// internal/session/manager.go
package session

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
)

const (
	identityKey = "portal.identity"
	sessionKey  = "portal.sid"

	// BrowserCookie keys per-browser UI state (map camera, search debounce)
	// for every visitor. It outlives sign-in and sign-out.
	BrowserCookie = "portal_sid"

	issuer = "rental-portal"
)

var ErrInvalidToken = stderrors.New("invalid session token")

// Claims is the signed identity cookie payload.
type Claims struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"`
	BearerToken string `json:"tok"`
	jwt.RegisteredClaims
}

type Manager struct {
	key        []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
	logger     logger.Logger
}

func NewManager(cfg config.SessionConfig, log logger.Logger) *Manager {
	return &Manager{
		key:        []byte(cfg.SigningKey),
		cookieName: cfg.CookieName,
		ttl:        config.GetDuration(cfg.TTL),
		secure:     cfg.Secure,
		now:        time.Now,
		logger:     log,
	}
}

func (m *Manager) CookieName() string { return m.cookieName }

// Issue signs an identity into a cookie value.
func (m *Manager) Issue(id *models.Identity) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Name:        id.Name,
		Email:       id.Email,
		Phone:       id.Phone,
		Role:        string(id.Role),
		BearerToken: id.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a cookie value and returns the identity and the session id.
func (m *Manager) Parse(value string) (*models.Identity, string, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, "", ErrInvalidToken
	}
	return &models.Identity{
		Token: claims.BearerToken,
		Name:  claims.Name,
		Email: claims.Email,
		Phone: claims.Phone,
		Role:  models.Role(claims.Role),
	}, claims.ID, nil
}

// SetCookie signs id and attaches it to the response.
func (m *Manager) SetCookie(c echo.Context, id *models.Identity) error {
	value, expiresAt, err := m.Issue(id)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware resolves the identity cookie on every request. A missing,
// expired or tampered cookie leaves the request anonymous; a bad one is
// also cleared. Every request gets the browser id from BrowserCookie.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(m.cookieName); err == nil && cookie.Value != "" {
				id, _, err := m.Parse(cookie.Value)
				if err != nil {
					m.logger.Debug("Discarding invalid session cookie", map[string]interface{}{
						"path":  c.Request().URL.Path,
						"error": err,
					})
					m.ClearCookie(c)
				} else {
					c.Set(identityKey, id)
				}
			}

			c.Set(sessionKey, m.browserID(c))
			return next(c)
		}
	}
}

func (m *Manager) browserID(c echo.Context) string {
	if cookie, err := c.Cookie(BrowserCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     BrowserCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// FromContext returns the signed-in identity, or nil for anonymous requests.
func FromContext(c echo.Context) *models.Identity {
	id, _ := c.Get(identityKey).(*models.Identity)
	return id
}

// ID returns the per-browser session id set by the middleware.
func ID(c echo.Context) string {
	sid, _ := c.Get(sessionKey).(string)
	return sid
}

// WithIdentity stores id and the browser id on the context, as the
// middleware would.
func WithIdentity(c echo.Context, id *models.Identity, sid string) {
	c.Set(identityKey, id)
	c.Set(sessionKey, sid)
}
