// internal/proxy/proxy.go
package proxy

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/session"
)

// Proxy forwards same-origin API calls from the browser to the backend. Only
// callers presenting the shared secret header get through.
type Proxy struct {
	target       *url.URL
	prefix       string
	secretHeader string
	secret       string
	transport    http.RoundTripper
	logger       logger.Logger
}

type Option func(*Proxy)

// WithTransport replaces the transport used for upstream calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) { p.transport = rt }
}

func New(cfg config.UpstreamConfig, log logger.Logger, opts ...Option) (*Proxy, error) {
	target, err := url.Parse(cfg.BaseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid upstream base url %q", cfg.BaseURL)
	}
	p := &Proxy{
		target:       target,
		prefix:       strings.TrimRight(cfg.ProxyPrefix, "/"),
		secretHeader: cfg.SecretHeader,
		secret:       cfg.SharedSecret,
		logger:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Register mounts the proxy under its prefix; every method is forwarded.
func (p *Proxy) Register(e *echo.Echo) {
	g := e.Group(p.prefix)
	g.Use(p.checkSecret, p.forwardIdentity, middleware.ProxyWithConfig(p.config()))
}

func (p *Proxy) config() middleware.ProxyConfig {
	return middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{Name: "backend", URL: p.target},
		}),
		Rewrite: map[string]string{
			p.prefix + "/*": "/$1",
		},
		Transport: p.transport,
		ModifyResponse: func(resp *http.Response) error {
			metrics.ProxiedRequests.WithLabelValues(resp.Request.Method, strconv.Itoa(resp.StatusCode)).Inc()
			return nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			metrics.ProxiedRequests.WithLabelValues(c.Request().Method, "error").Inc()
			p.logger.Warn("Proxy request failed", map[string]interface{}{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
				"error":  err,
			})
			return errors.NewUpstreamUnavailableError("proxy", err)
		},
	}
}

func (p *Proxy) checkSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get(p.secretHeader)
		if p.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(p.secret)) != 1 {
			metrics.ProxiedRequests.WithLabelValues(c.Request().Method, "forbidden").Inc()
			return errors.NewProxySecretMismatchError()
		}
		return next(c)
	}
}

// forwardIdentity swaps browser credentials for backend ones: the portal
// cookies stay here, the signed-in user's bearer token goes upstream.
func (p *Proxy) forwardIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		req.Header.Del("Cookie")
		req.Header.Set(p.secretHeader, p.secret)
		if id := session.FromContext(c); id != nil && id.Token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+id.Token)
		} else {
			req.Header.Del(echo.HeaderAuthorization)
		}
		return next(c)
	}
}
