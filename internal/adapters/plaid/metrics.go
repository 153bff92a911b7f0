package plaid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "easyfinance",
		Subsystem: "plaid",
		Name:      "requests_total",
		Help:      "Total number of Plaid API requests, by endpoint and HTTP status (0 on transport failure).",
	},
		[]string{"endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "easyfinance",
		Subsystem: "plaid",
		Name:      "request_duration_seconds",
		Help:      "Time taken by Plaid API requests.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
	},
		[]string{"endpoint"},
	)
)
