package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		inferenceRequests,
		inferenceLatencyMs,
		inferenceFallbacks,
	)
}

var (
	inferenceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_requests_total",
			Help: "Inference calls per provider and outcome.",
		},
		[]string{"provider", "outcome"}, // outcome: ok | error | empty
	)

	inferenceLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_latency_ms",
			Help:    "Inference call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"provider", "success"},
	)

	inferenceFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inference_fallback_replies_total",
			Help: "Assistant replies replaced by the fallback text.",
		},
	)
)

func ObserveInference(provider, outcome string, elapsed time.Duration) {
	inferenceRequests.WithLabelValues(norm(provider), norm(outcome)).Inc()
	inferenceLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(outcome == "ok")).
		Observe(float64(elapsed.Milliseconds()))
}

func IncFallbackReply() {
	inferenceFallbacks.Inc()
}
