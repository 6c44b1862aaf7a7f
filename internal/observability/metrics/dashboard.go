package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics covers filter and aggregation passes and sessions.
type DashboardMetrics struct {
	collectorSet

	passes         *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	filteredRows   *prometheus.HistogramVec
	emptyViews     *prometheus.CounterVec
	schemaMisses   *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func NewDashboardMetrics(registry prometheus.Registerer) (*DashboardMetrics, error) {
	m := &DashboardMetrics{
		passes: counter("dashboard_passes_total", "Total number of filter and aggregation passes",
			"habitat", "status"),
		passDuration: histogram("dashboard_pass_duration_seconds", "Time taken for one filter and aggregation pass",
			prometheus.ExponentialBuckets(0.0001, 2, 15), "habitat"), // 0.1ms to ~1.6s
		filteredRows: histogram("dashboard_filtered_rows", "Rows remaining after filtering",
			[]float64{0, 10, 100, 500, 1000, 5000, 10000, 50000}, "habitat"),
		emptyViews: counter("dashboard_empty_views_total", "Passes whose filtered view had no rows",
			"habitat"),
		schemaMisses: counter("dashboard_schema_misses_total", "Views skipped because an optional column role did not resolve",
			"habitat", "role"),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_sessions",
			Help: "Current number of dashboard sessions",
		}),
	}
	m.collectorSet = collectorSet{m.passes, m.passDuration, m.filteredRows, m.emptyViews, m.schemaMisses, m.activeSessions}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordPass records a completed pass and the size of its filtered view.
func (m *DashboardMetrics) RecordPass(habitat string, rows int, seconds float64) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(habitat, StatusSuccess).Inc()
	m.passDuration.WithLabelValues(habitat).Observe(seconds)
	m.filteredRows.WithLabelValues(habitat).Observe(float64(rows))
	if rows == 0 {
		m.emptyViews.WithLabelValues(habitat).Inc()
	}
}

// RecordPassError records a pass that failed before aggregation.
func (m *DashboardMetrics) RecordPassError(habitat string) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(habitat, StatusError).Inc()
}

func (m *DashboardMetrics) RecordSchemaMiss(habitat, role string) {
	if m == nil {
		return
	}
	m.schemaMisses.WithLabelValues(habitat, role).Inc()
}

func (m *DashboardMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
