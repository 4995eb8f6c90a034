package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ams",
			Subsystem: "store",
			Name:      "fetches_total",
			Help:      "Application fetches by outcome.",
		},
		[]string{"outcome"},
	)

	mergedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ams",
			Subsystem: "store",
			Name:      "merged_applications_total",
			Help:      "Applications merged into the store, by whether they were inserted or replaced.",
		},
		[]string{"action"},
	)

	applicationsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ams",
			Subsystem: "store",
			Name:      "applications",
			Help:      "Number of applications held in the store.",
		},
	)
)
