package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Conversion outcomes recorded in the result label.
const (
	resultOK       = "ok"
	resultCached   = "cached"
	resultInvalid  = "invalid"
	resultTooLarge = "too_large"
)

type metrics struct {
	conversions *prometheus.CounterVec
	duration    prometheus.Histogram
	inputBytes  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsonstruct",
			Name:      "conversions_total",
			Help:      "Conversion requests by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsonstruct",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent parsing and emitting declarations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		inputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsonstruct",
			Name:      "input_bytes",
			Help:      "Size of accepted request bodies.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
	reg.MustRegister(m.conversions, m.duration, m.inputBytes)
	return m
}
