// Package metrics defines the prometheus collectors of zkpass.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zkpass"

// Metrics groups the app's collectors.
type Metrics struct {
	attempts        *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	gatewayRequests *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "attempts_total",
			Help:      "Transaction attempts by authentication path and outcome.",
		}, []string{"path", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each transaction attempt stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by route and status code.",
		}, []string{"route", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.stageDuration, m.gatewayRequests)
	}
	return m
}

// ObserveAttempt counts one finished attempt.
func (m *Metrics) ObserveAttempt(path, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(path, outcome).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRequest counts one gateway request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
