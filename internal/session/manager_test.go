// internal/session/manager_test.go
package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(config.SessionConfig{
		SigningKey: "test-signing-key-0123456789",
		CookieName: "portal_session",
		TTL:        int(time.Hour / time.Millisecond),
	}, logger.NewTestLogger(t))
}

var agent = &models.Identity{Token: "bearer-1", Name: "Ann Agent", Email: "ann@example.com", Role: models.RoleAgent}

func TestManager_IssueAndParse(t *testing.T) {
	m := newTestManager(t)

	value, expires, err := m.Issue(agent)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, sid, err := m.Parse(value)
	require.NoError(t, err)
	assert.Equal(t, agent, id)
	assert.NotEmpty(t, sid)
}

func TestManager_ParseRejects(t *testing.T) {
	m := newTestManager(t)
	value, _, err := m.Issue(agent)
	require.NoError(t, err)

	other := newTestManager(t)
	other.key = []byte("another-key")
	forged, _, err := other.Issue(&models.Identity{Email: "ann@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	parts := strings.Split(value, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "ann@example.com", Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong key", forged},
		{"tampered payload", tampered},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.Parse(tt.value)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestManager_ParseExpired(t *testing.T) {
	m := newTestManager(t)
	value, _, err := m.Issue(agent)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, err = m.Parse(value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// ==========================
// Middleware
// ==========================

func runMiddleware(t *testing.T, m *Manager, cookies ...*http.Cookie) (*models.Identity, string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tenant/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var id *models.Identity
	var sid string
	handler := m.Middleware()(func(c echo.Context) error {
		id = FromContext(c)
		sid = ID(c)
		return nil
	})
	require.NoError(t, handler(c))
	return id, sid, rec
}

func TestMiddleware_ValidCookie(t *testing.T) {
	m := newTestManager(t)
	value, _, err := m.Issue(agent)
	require.NoError(t, err)

	id, sid, _ := runMiddleware(t, m, &http.Cookie{Name: "portal_session", Value: value})
	require.NotNil(t, id)
	assert.Equal(t, "ann@example.com", id.Email)
	assert.Equal(t, "bearer-1", id.Token)
	assert.NotEmpty(t, sid)
}

func TestMiddleware_InvalidCookieIsAnonymousAndCleared(t *testing.T) {
	m := newTestManager(t)

	id, sid, rec := runMiddleware(t, m, &http.Cookie{Name: "portal_session", Value: "forged"})
	assert.Nil(t, id)
	assert.NotEmpty(t, sid, "anonymous visitors still get a session id")

	setCookies := rec.Header().Values("Set-Cookie")
	require.NotEmpty(t, setCookies)
	assert.Contains(t, strings.Join(setCookies, ";"), "portal_session=;")
}

func TestMiddleware_AnonymousIDIsStable(t *testing.T) {
	m := newTestManager(t)

	_, first, rec := runMiddleware(t, m)
	require.NotEmpty(t, first)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), BrowserCookie+"="+first)

	_, second, _ := runMiddleware(t, m, &http.Cookie{Name: BrowserCookie, Value: first})
	assert.Equal(t, first, second)
}

func TestMiddleware_BrowserIDSurvivesSignIn(t *testing.T) {
	m := newTestManager(t)

	_, before, _ := runMiddleware(t, m)
	require.NotEmpty(t, before)

	value, _, err := m.Issue(agent)
	require.NoError(t, err)
	id, after, rec := runMiddleware(t, m,
		&http.Cookie{Name: BrowserCookie, Value: before},
		&http.Cookie{Name: "portal_session", Value: value},
	)
	require.NotNil(t, id)
	assert.Equal(t, before, after, "map and search state stay keyed to the same browser")
	assert.Empty(t, rec.Header().Get("Set-Cookie"))

	_, signedOut, _ := runMiddleware(t, m, &http.Cookie{Name: BrowserCookie, Value: before})
	assert.Equal(t, before, signedOut)
}

func TestSetAndClearCookie(t *testing.T) {
	m := newTestManager(t)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)

	require.NoError(t, m.SetCookie(c, agent))
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "portal_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/logout", nil), rec)
	m.ClearCookie(c)
	cleared := rec.Result().Cookies()[0]
	assert.Equal(t, "", cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}
