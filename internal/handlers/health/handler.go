// internal/handlers/health/handler.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rental-portal/internal/common/logger"
)

const checkTimeout = 2 * time.Second

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	checks map[string]Pinger
	now    func() time.Time
	logger logger.Logger
}

func NewHandler(checks map[string]Pinger, log logger.Logger) *Handler {
	return &Handler{checks: checks, now: time.Now, logger: log}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.HandleHealth)
	e.GET("/ready", h.HandleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// HandleReady pings every dependency; one failure makes the service not ready.
func (h *Handler) HandleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", map[string]interface{}{"dependency": name, "error": err})
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	return c.JSON(status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   h.now().Format(time.RFC3339),
	})
}
