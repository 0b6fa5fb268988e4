// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package verifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MustRegisterMetrics registers the verifier collectors in the given registry.
func MustRegisterMetrics(reg prometheus.Registerer) {
	collectors := make([]prometheus.Collector, 0, len(metrics))
	for _, metric := range metrics {
		collectors = append(collectors, metric)
	}
	reg.MustRegister(collectors...)
}

// ResetMetrics clears all recorded samples.
func ResetMetrics() {
	verificationsTotal.Reset()
	verificationDuration.Reset()
}

func recordMetrics(format string, outcome Outcome, start time.Time) {
	verificationsTotal.WithLabelValues(format, string(outcome)).Inc()
	verificationDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
}

var (
	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hap_verifications_total",
			Help: "The total number of envelope verifications by format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	verificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hap_verification_duration_seconds",
			Help:    "The duration of envelope verifications including key discovery.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
)

var metrics = map[string]prometheus.Collector{
	"verifications_total":           verificationsTotal,
	"verification_duration_seconds": verificationDuration,
}
