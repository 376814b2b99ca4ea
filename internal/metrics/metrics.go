// Package metrics holds the prometheus counters for provider calls and lead
// output.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the outreach collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	ProviderAttempts  *prometheus.CounterVec
	ProviderFailures  *prometheus.CounterVec
	ValidationBatches *prometheus.CounterVec
	BreakerOpen       *prometheus.GaugeVec
	LeadsEmitted      prometheus.Counter
	RowsWritten       *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProviderAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_provider_attempts_total",
			Help: "Provider HTTP attempts by outcome",
		}, []string{"provider", "outcome"}),
		ProviderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_provider_failures_total",
			Help: "Provider failures absorbed at the enrichment boundary",
		}, []string{"provider", "kind"}),
		ValidationBatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_validation_batches_total",
			Help: "Email validation batches by outcome",
		}, []string{"outcome"}),
		BreakerOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outreach_provider_breaker_open",
			Help: "1 while a provider is out of rotation after quota exhaustion",
		}, []string{"provider"}),
		LeadsEmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "outreach_leads_emitted_total",
			Help: "Output rows that passed the lead filter",
		}),
		RowsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_sink_rows_total",
			Help: "Rows appended to a lead sink",
		}, []string{"sink"}),
	}
}

// Attempt records one provider HTTP attempt.
func (m *Metrics) Attempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.ProviderAttempts.WithLabelValues(provider, outcome).Inc()
}

// Failure records a provider failure that was absorbed by the caller.
func (m *Metrics) Failure(provider, kind string) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(provider, kind).Inc()
}

// Batch records a validation batch outcome.
func (m *Metrics) Batch(outcome string) {
	if m == nil {
		return
	}
	m.ValidationBatches.WithLabelValues(outcome).Inc()
}

// SetBreaker marks a provider as in or out of rotation.
func (m *Metrics) SetBreaker(provider string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(provider).Set(v)
}

// Leads adds n emitted rows.
func (m *Metrics) Leads(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LeadsEmitted.Add(float64(n))
}

// Rows adds n rows written to the named sink.
func (m *Metrics) Rows(sink string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsWritten.WithLabelValues(sink).Add(float64(n))
}
