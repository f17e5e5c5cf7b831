// internal/handlers/dashboard/handler.go
package dashboard

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/response"
	"rental-portal/internal/session"
)

const RouteGroup = "dashboard"

// Fetcher reads a JSON resource from the backend on behalf of a user.
type Fetcher interface {
	Fetch(ctx context.Context, token, path string, query url.Values) (json.RawMessage, error)
}

// Section maps a portal page onto the backend resource that feeds it.
// Upstream may hold :name placeholders filled from the route params.
type Section struct {
	Route    string
	Upstream string
}

// Sections are the role pages; access is enforced by the gate.
var Sections = []Section{
	{Route: "/tenant/dashboard", Upstream: "/tenant/applications"},
	{Route: "/agent/listings", Upstream: "/agent/listings"},
	{Route: "/landlord/properties", Upstream: "/landlord/properties"},
	{Route: "/admin/stats", Upstream: "/admin/stats"},
	{Route: "/properties/:id", Upstream: "/properties/:id"},
}

type Handler struct {
	fetcher Fetcher
	logger  logger.Logger
}

func NewHandler(fetcher Fetcher, log logger.Logger) *Handler {
	return &Handler{
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"route": RouteGroup}),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	for _, s := range Sections {
		e.GET(s.Route, h.passThrough(s))
	}
}

func (h *Handler) passThrough(s Section) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if id := session.FromContext(c); id != nil {
			token = id.Token
		}

		data, err := h.fetcher.Fetch(c.Request().Context(), token, expand(s.Upstream, c), c.QueryParams())
		if err != nil {
			return err
		}
		return response.Success(c, "", data)
	}
}

func expand(path string, c echo.Context) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = url.PathEscape(c.Param(seg[1:]))
		}
	}
	return strings.Join(segments, "/")
}
