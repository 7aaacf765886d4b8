package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpRateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of HTTP requests rejected due to rate limiting",
	},
)

var SermonsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sermons_created_total",
		Help: "Total number of sermons persisted",
	},
	[]string{"source"},
)

var QuotaRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quota_rejections_total",
		Help: "Total number of requests rejected by a plan quota",
	},
	[]string{"resource", "scope"},
)

var PlanChangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "plan_changes_total",
		Help: "Plan change workflow transitions",
	},
	[]string{"action"},
)

var NotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications handled by the dispatcher",
	},
	[]string{"provider", "status"},
)

var AIRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ai_request_duration_seconds",
		Help:    "Duration of LLM provider calls in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	},
	[]string{"provider", "status"},
)

var registerOnce sync.Once

// Init registers every collector once; safe to call from tests and main.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HttpRequestsTotal,
			HttpRequestDuration,
			HttpRateLimitRejectionsTotal,
			SermonsCreatedTotal,
			QuotaRejectionsTotal,
			PlanChangesTotal,
			NotificationsTotal,
			AIRequestDuration,
		)
	})
}
