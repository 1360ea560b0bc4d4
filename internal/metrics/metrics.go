package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics of the monitor.
type Registry struct {
	registry *prometheus.Registry

	RefreshDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
	RefreshErrors   *prometheus.CounterVec
	ActiveRefreshes prometheus.Gauge
	RefreshRequests *prometheus.CounterVec

	AlertsEmitted    *prometheus.CounterVec
	AlertsSuppressed *prometheus.CounterVec

	JobRuns     *prometheus.CounterVec
	LatestScore *prometheus.GaugeVec
}

// NewRegistry creates a registry with the monitor metrics and the Go runtime collectors.
func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		RefreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_monitor_refresh_duration_seconds",
				Help:    "Duration of a per-company refresh cycle in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"mode", "result"},
		),

		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_refresh_total",
				Help: "Total number of refresh cycles by mode and result",
			},
			[]string{"mode", "result"},
		),

		RefreshErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_refresh_errors_total",
				Help: "Total number of failed refresh cycles by error kind",
			},
			[]string{"kind"},
		),

		ActiveRefreshes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "credit_monitor_active_refreshes",
				Help: "Number of refresh cycles currently running",
			},
		),

		RefreshRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_refresh_requests_total",
				Help: "Refresh requests by outcome (started, queued, coalesced, rejected)",
			},
			[]string{"outcome"},
		),

		AlertsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_alerts_emitted_total",
				Help: "Total number of alerts persisted by type and severity",
			},
			[]string{"type", "severity"},
		),

		AlertsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_alerts_suppressed_total",
				Help: "Total number of alerts dropped by deduplication",
			},
			[]string{"type"},
		),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_monitor_job_runs_total",
				Help: "Total number of scheduled job runs by job and status",
			},
			[]string{"job_id", "status"},
		),

		LatestScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "credit_monitor_latest_score",
				Help: "Latest overall credit score per company",
			},
			[]string{"ticker"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RefreshDuration,
		m.RefreshTotal,
		m.RefreshErrors,
		m.ActiveRefreshes,
		m.RefreshRequests,
		m.AlertsEmitted,
		m.AlertsSuppressed,
		m.JobRuns,
		m.LatestScore,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RefreshTimer tracks one refresh cycle.
type RefreshTimer struct {
	metrics *Registry
	mode    string
	start   time.Time
}

// StartRefresh marks a refresh cycle as active and starts timing it.
func (m *Registry) StartRefresh(mode string) *RefreshTimer {
	m.ActiveRefreshes.Inc()
	return &RefreshTimer{metrics: m, mode: mode, start: time.Now()}
}

// Stop records the cycle duration and outcome.
func (t *RefreshTimer) Stop(result string) {
	t.metrics.ActiveRefreshes.Dec()
	t.metrics.RefreshDuration.WithLabelValues(t.mode, result).Observe(time.Since(t.start).Seconds())
	t.metrics.RefreshTotal.WithLabelValues(t.mode, result).Inc()
}

// RecordRefreshError counts a failed cycle by error kind.
func (m *Registry) RecordRefreshError(kind string) {
	m.RefreshErrors.WithLabelValues(kind).Inc()
}

// RecordRefreshRequest counts an enqueue outcome.
func (m *Registry) RecordRefreshRequest(outcome string) {
	m.RefreshRequests.WithLabelValues(outcome).Inc()
}

// RecordAlert counts a persisted alert.
func (m *Registry) RecordAlert(alertType, severity string) {
	m.AlertsEmitted.WithLabelValues(alertType, severity).Inc()
}

// RecordSuppressedAlert counts an alert dropped by deduplication.
func (m *Registry) RecordSuppressedAlert(alertType string) {
	m.AlertsSuppressed.WithLabelValues(alertType).Inc()
}

// RecordJobRun counts a finished job run.
func (m *Registry) RecordJobRun(jobID, status string) {
	m.JobRuns.WithLabelValues(jobID, status).Inc()
}

// SetLatestScore publishes the latest overall score of ticker.
func (m *Registry) SetLatestScore(ticker string, score float64) {
	m.LatestScore.WithLabelValues(ticker).Set(score)
}
