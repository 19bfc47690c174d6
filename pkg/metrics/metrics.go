// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of webauthn-core.
//
// webauthn-core is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for WebAuthn ceremony
// outcomes: counters by ceremony and result, duration histograms, and
// per-step failure counters keyed by error kind.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all ceremony metrics
	Namespace = "webauthn"

	// Label names
	LabelCeremony  = "ceremony"
	LabelStatus    = "status"
	LabelStep      = "step"
	LabelErrorKind = "error_kind"

	// Ceremony names
	CeremonyRegistration = "registration"
	CeremonyAssertion    = "assertion"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// CeremoniesTotal tracks the total number of ceremonies by type and
	// outcome. Use RecordCeremony to increment with the right labels.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremonies_total",
			Help:      "Total number of WebAuthn ceremonies by type and status",
		},
		[]string{LabelCeremony, LabelStatus},
	)

	// CeremonyDuration tracks end-to-end ceremony duration in seconds.
	// Buckets are optimized for in-memory verification latencies plus one
	// or two repository/metadata round trips.
	CeremonyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ceremony_duration_seconds",
			Help:      "Duration of WebAuthn ceremonies in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelCeremony},
	)

	// StepFailuresTotal tracks pipeline step failures by ceremony, step
	// name and error kind, so a spike in one contract (e.g. counter
	// regressions) is visible in isolation.
	StepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "step_failures_total",
			Help:      "Total number of ceremony step failures by step and error kind",
		},
		[]string{LabelCeremony, LabelStep, LabelErrorKind},
	)

	// CeremonyWarningsTotal tracks warnings surfaced on successful results
	// (untrusted attestation allowed through, counter regression with
	// validation off, and so on).
	CeremonyWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremony_warnings_total",
			Help:      "Total number of warnings attached to successful ceremony results",
		},
		[]string{LabelCeremony},
	)
)

// RecordCeremony increments the ceremony counter and observes its duration.
func RecordCeremony(ceremony, status string, duration time.Duration) {
	CeremoniesTotal.WithLabelValues(ceremony, status).Inc()
	CeremonyDuration.WithLabelValues(ceremony).Observe(duration.Seconds())
}

// RecordStepFailure increments the step-failure counter for the failing
// step and error kind.
func RecordStepFailure(ceremony, step, errorKind string) {
	StepFailuresTotal.WithLabelValues(ceremony, step, errorKind).Inc()
}

// RecordWarnings adds n warnings for a ceremony type.
func RecordWarnings(ceremony string, n int) {
	if n > 0 {
		CeremonyWarningsTotal.WithLabelValues(ceremony).Add(float64(n))
	}
}
