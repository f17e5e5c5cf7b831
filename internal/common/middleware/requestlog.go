// internal/common/middleware/requestlog.go
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/common/observability"
)

// RequestLog logs one line per request and feeds the request counters.
// Errors are rendered here so the logged status is the one the client saw.
func RequestLog(log logger.Logger, obs *observability.Observability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			latency := time.Since(start)

			req := c.Request()
			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := res.Status

			metrics.HTTPRequests.WithLabelValues(route, req.Method, statusClass(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, req.Method).Observe(latency.Seconds())
			obs.RecordRequest(req.Context(), route, req.Method, status, latency)

			fields := map[string]interface{}{
				"requestId": res.Header().Get(echo.HeaderXRequestID),
				"method":    req.Method,
				"path":      req.URL.Path,
				"route":     route,
				"status":    status,
				"latencyMs": latency.Milliseconds(),
				"bytes":     res.Size,
			}
			if status >= 500 {
				log.Warn("request served", fields)
			} else {
				log.Debug("request served", fields)
			}
			return nil
		}
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
