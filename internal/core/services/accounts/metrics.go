package accounts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "easyfinance",
	Subsystem: "accounts",
	Name:      "fetch_errors_total",
	Help:      "Total number of failed account fetches, by failure kind and aggregator code.",
},
	[]string{"kind", "code"},
)
