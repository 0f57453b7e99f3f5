// Package metrics метрики Prometheus сервиса. Метрики регистрируются в
// реестре по умолчанию и отдаются на /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movies_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movies_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Домен
	RatingUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_rating_upserts_total",
			Help: "Rating create-or-update attempts by result",
		},
		[]string{"result"}, // "ok", "invalid", "error"
	)

	ReviewTreeAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_review_tree_anomalies_total",
			Help: "Reviews left out of a movie's review tree due to broken parent links",
		},
		[]string{"kind"}, // "foreign_movie", "orphan", "cycle"
	)

	// Кэш ответов
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_cache_requests_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	// gRPC
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_grpc_requests_total",
			Help: "Total number of internal gRPC calls",
		},
		[]string{"method", "code"},
	)
)

// ObserveHTTP записывает один обработанный HTTP-запрос.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
