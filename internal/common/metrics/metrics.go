// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests served by route",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_upstream_requests_total",
			Help: "Total number of calls to the backend API by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ProxiedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_proxied_requests_total",
			Help: "Total number of requests forwarded through the same-origin proxy",
		},
		[]string{"method", "status"},
	)

	WizardSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_wizard_submissions_total",
			Help: "Total number of wizard submissions by outcome",
		},
		[]string{"wizard", "outcome"},
	)

	WizardStepsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_wizard_steps_blocked_total",
			Help: "Number of next/submit attempts refused because required fields were empty",
		},
		[]string{"wizard", "step"},
	)

	WizardDraftsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_wizard_drafts_created_total",
			Help: "Number of wizard drafts created",
		},
		[]string{"wizard"},
	)

	SuggestionQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_suggestion_queries_total",
			Help: "Search suggestion requests by result (served, superseded, cleared, cached, failed)",
		},
		[]string{"result"},
	)

	MapSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_map_sessions_active",
			Help: "Number of in-memory map view sessions",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_total",
			Help: "Submission receipt notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_audit_writes_total",
			Help: "Submission audit rows written by outcome",
		},
		[]string{"outcome"},
	)
)
