// internal/gate/gate.go
package gate

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/session"
)

// Gate protects path prefixes by role. The longest matching prefix decides.
type Gate struct {
	rules     []config.GateRule
	loginPath string
	logger    logger.Logger
}

func New(cfg config.GateConfig, log logger.Logger) *Gate {
	rules := append([]config.GateRule(nil), cfg.Rules...)
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Prefix) > len(rules[j].Prefix)
	})
	return &Gate{rules: rules, loginPath: cfg.LoginPath, logger: log}
}

// Match returns the rule covering path. A prefix matches whole path segments
// only, so /admin does not cover /administrators.
func (g *Gate) Match(path string) (config.GateRule, bool) {
	for _, r := range g.rules {
		p := strings.TrimRight(r.Prefix, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return r, true
		}
	}
	return config.GateRule{}, false
}

func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rule, ok := g.Match(req.URL.Path)
			if !ok {
				return next(c)
			}

			id := session.FromContext(c)
			if id == nil {
				if wantsJSON(req) {
					return errors.NewSessionInvalidError("path: " + req.URL.Path)
				}
				return c.Redirect(http.StatusFound, g.loginPath+"?next="+url.QueryEscape(req.URL.RequestURI()))
			}

			if !id.HasRole(rule.Roles...) {
				g.logger.Warn("Role not allowed for section", map[string]interface{}{
					"path":   req.URL.Path,
					"prefix": rule.Prefix,
					"role":   string(id.Role),
					"email":  id.Email,
				})
				return errors.NewForbiddenError(string(id.Role), req.URL.Path)
			}
			return next(c)
		}
	}
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
