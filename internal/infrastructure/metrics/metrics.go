// Package metrics exposes receipt engine counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
)

// ReceiptMetrics records generate outcomes, render latency and logins.
// A nil *ReceiptMetrics is valid and records nothing.
type ReceiptMetrics struct {
	generateOutcomes *prometheus.CounterVec
	renderDuration   prometheus.Histogram
	loginAttempts    *prometheus.CounterVec
	stepUps          *prometheus.CounterVec
}

// New registers the receipt collectors on registerer.
func New(registerer prometheus.Registerer) *ReceiptMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ReceiptMetrics{
		generateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disfruleg",
			Subsystem: "receipt",
			Name:      "generate_total",
			Help:      "Generate receipt actions by outcome.",
		}, []string{"status"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disfruleg",
			Subsystem: "receipt",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering and storing receipt PDFs.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disfruleg",
			Subsystem: "auth",
			Name:      "login_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		stepUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disfruleg",
			Subsystem: "auth",
			Name:      "step_up_total",
			Help:      "Admin step-up requests for special products by result.",
		}, []string{"result"}),
	}

	registerer.MustRegister(m.generateOutcomes, m.renderDuration, m.loginAttempts, m.stepUps)
	return m
}

func (m *ReceiptMetrics) ObserveGenerate(status enum.GenerateStatus) {
	if m == nil {
		return
	}
	m.generateOutcomes.WithLabelValues(status.String()).Inc()
}

func (m *ReceiptMetrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

// ObserveLogin counts a login attempt; result is "ok" or an error kind.
func (m *ReceiptMetrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *ReceiptMetrics) ObserveStepUp(granted bool) {
	if m == nil {
		return
	}
	result := "denied"
	if granted {
		result = "granted"
	}
	m.stepUps.WithLabelValues(result).Inc()
}
