// internal/proxy/proxy_test.go
package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
	"rental-portal/internal/session"
)

type seenRequest struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

func newProxyServer(t *testing.T, who *models.Identity, upstream http.HandlerFunc) *echo.Echo {
	t.Helper()
	backend := httptest.NewServer(upstream)
	t.Cleanup(backend.Close)

	log := logger.NewTestLogger(t)
	p, err := New(config.UpstreamConfig{
		BaseURL:      backend.URL,
		SharedSecret: "s3cret",
		SecretHeader: "X-Proxy-Secret",
		ProxyPrefix:  "/api/proxy",
	}, log)
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = errors.NewErrorHandler(log).Handle
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if who != nil {
				session.WithIdentity(c, who, "sid")
			}
			return next(c)
		}
	})
	p.Register(e)
	return e
}

func TestProxy_ForwardsWithSecret(t *testing.T) {
	var seen seenRequest
	e := newProxyServer(t, &models.Identity{Token: "tok-1", Email: "jane@example.com", Role: models.RoleTenant},
		func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			seen = seenRequest{r.Method, r.URL.Path, r.URL.RawQuery, string(body), r.Header.Clone()}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"saved":true}`))
		})

	req := httptest.NewRequest(http.MethodPut, "/api/proxy/listings/l-1/favorite?src=card", strings.NewReader(`{"on":true}`))
	req.Header.Set("X-Proxy-Secret", "s3cret")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client", "web")
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "jwt"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"saved":true}`, rec.Body.String())

	assert.Equal(t, http.MethodPut, seen.method)
	assert.Equal(t, "/listings/l-1/favorite", seen.path)
	assert.Equal(t, "src=card", seen.query)
	assert.Equal(t, `{"on":true}`, seen.body)
	assert.Equal(t, "web", seen.header.Get("X-Client"))
	assert.Equal(t, "s3cret", seen.header.Get("X-Proxy-Secret"))
	assert.Equal(t, "Bearer tok-1", seen.header.Get("Authorization"))
	assert.Empty(t, seen.header.Get("Cookie"), "portal cookies stay on the portal")
}

func TestProxy_PassesBackendErrorsThrough(t *testing.T) {
	e := newProxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"already saved"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/proxy/listings", nil)
	req.Header.Set("X-Proxy-Secret", "s3cret")
	req.Header.Set("Authorization", "Bearer spoofed")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already saved")
}

func TestProxy_RejectsMissingOrWrongSecret(t *testing.T) {
	called := false
	e := newProxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) { called = true })

	for _, secret := range []string{"", "s3cre", "s3cret!"} {
		req := httptest.NewRequest(http.MethodGet, "/api/proxy/admin/stats", nil)
		if secret != "" {
			req.Header.Set("X-Proxy-Secret", secret)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), string(errors.ErrCodeProxySecretMismatch))
	}
	assert.False(t, called)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(config.UpstreamConfig{BaseURL: "not a url"}, logger.NewNoOpLogger())
	assert.Error(t, err)
}
