// internal/common/middleware/requestlog_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
)

func TestRequestLog_CountsRenderedStatus(t *testing.T) {
	log := logger.NewTestLogger(t)
	e := echo.New()
	e.HTTPErrorHandler = errors.NewErrorHandler(log).Handle
	e.Use(echomw.RequestID(), RequestLog(log, nil))

	e.GET("/ok/:id", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/missing/:id", func(c echo.Context) error { return errors.NewDraftNotFoundError(c.Param("id")) })

	okBefore := counterValue(metrics.HTTPRequests.WithLabelValues("/ok/:id", http.MethodGet, "2xx"))
	missBefore := counterValue(metrics.HTTPRequests.WithLabelValues("/missing/:id", http.MethodGet, "4xx"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(errors.ErrCodeDraftNotFound))

	assert.Equal(t, okBefore+1, counterValue(metrics.HTTPRequests.WithLabelValues("/ok/:id", http.MethodGet, "2xx")))
	assert.Equal(t, missBefore+1, counterValue(metrics.HTTPRequests.WithLabelValues("/missing/:id", http.MethodGet, "4xx")))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 201: "2xx", 302: "3xx", 401: "4xx", 404: "4xx", 502: "5xx"}
	for status, want := range tests {
		assert.Equal(t, want, statusClass(status))
	}
}
