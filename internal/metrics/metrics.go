package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anet_http_requests_total",
			Help: "Total HTTP requests served to peers",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anet_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anet_rate_limit_hits_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"path"},
	)

	// InboundMessages counts messages queued for local agents on behalf of peers.
	InboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anet_inbound_messages_total",
			Help: "Messages accepted from paired peers",
		},
		[]string{"kind"}, // "direct" or "broadcast"
	)

	PeerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anet_peer_requests_total",
			Help: "Outbound requests to paired peers",
		},
		[]string{"endpoint", "outcome"}, // outcome: "ok", "rejected", "unreachable"
	)

	PeerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anet_peer_request_duration_seconds",
			Help:    "Outbound peer request latency",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)
