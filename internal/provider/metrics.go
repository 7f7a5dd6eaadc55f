package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyfairy_provider_requests_total",
			Help: "Total number of requests to generation backends.",
		},
		[]string{"kind", "model", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyfairy_provider_request_duration_seconds",
			Help:    "Histogram of generation backend request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "model"},
	)
	totalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyfairy_provider_total_tokens",
			Help:    "Histogram of total token counts per text request.",
			Buckets: prometheus.LinearBuckets(350, 350, 20),
		},
		[]string{"model"},
	)
)

func statusLabels(kind, model, status string) prometheus.Labels {
	return prometheus.Labels{"kind": kind, "model": model, "status": status}
}

func callLabels(kind, model string) prometheus.Labels {
	return prometheus.Labels{"kind": kind, "model": model}
}
