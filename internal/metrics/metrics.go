package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	// HTTPRequestsTotal counts requests by method, matched route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks handler latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts public form requests rejected by the limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the public rate limiter",
		},
	)
)

// Upload Metrics
var (
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_chunk_bytes_total",
			Help: "Bytes received through chunked uploads",
		},
	)

	UploadsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_completed_total",
			Help: "Chunked uploads assembled successfully",
		},
	)
)

// Submission Metrics
var (
	// SubmissionsTotal counts public form submissions by kind.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Public form submissions by kind",
		},
		[]string{"kind"},
	)

	// NotificationsTotal counts notification e-mails by outcome (sent/failed).
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification e-mails by status",
		},
		[]string{"status"},
	)

	// AdminWSClients tracks connected admin dashboard sockets.
	AdminWSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_ws_clients",
			Help: "Connected admin dashboard websocket clients",
		},
	)
)
