package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodlens",
		Name:      "detections_total",
		Help:      "Total number of completed emotion detections",
	}, []string{"source"})

	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodlens",
		Name:      "provider_attempts_total",
		Help:      "Emotion provider attempts by outcome",
	}, []string{"provider", "outcome"})

	FallbacksServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodlens",
		Name:      "fallback_served_total",
		Help:      "Static fallback lists served instead of live content",
	}, []string{"kind"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodlens",
		Name:      "token_refreshes_total",
		Help:      "Music catalog token refreshes by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moodlens",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
