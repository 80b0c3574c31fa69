// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal counts form actions by outcome code ("ok" on success).
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_actions_total",
		Help: "Form actions by action name and result code.",
	}, []string{"action", "code"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_rate_limited_total",
		Help: "Requests rejected by a rate limiter.",
	}, []string{"limit"})

	GeneratorRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_generator_runs_total",
		Help: "Content generation runs by result.",
	}, []string{"result"})

	GeneratedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ainews_generated_rows_total",
		Help: "Stories and comments inserted by the generator.",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ainews_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
