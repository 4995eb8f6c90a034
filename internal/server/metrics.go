package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ams",
			Subsystem: "server",
			Name:      "queries_total",
			Help:      "Applications queries served, by transport and outcome.",
		},
		[]string{"transport", "outcome"},
	)

	subscribersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ams",
			Subsystem: "server",
			Name:      "subscribers",
			Help:      "Connected subscription clients.",
		},
	)
)
