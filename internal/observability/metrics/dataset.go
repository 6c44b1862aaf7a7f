package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatasetMetrics covers observation table loads and the table store.
type DatasetMetrics struct {
	collectorSet

	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	loadErrors   *prometheus.CounterVec
	tableRows    *prometheus.GaugeVec
	droppedRows  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

func NewDatasetMetrics(registry prometheus.Registerer) (*DatasetMetrics, error) {
	m := &DatasetMetrics{
		loads: counter("dataset_loads_total", "Total number of observation table loads",
			"habitat", "source_type", "status"),
		loadDuration: histogram("dataset_load_duration_seconds", "Time taken to load an observation table",
			prometheus.ExponentialBuckets(0.001, 2, 15), "habitat", "source_type"), // 1ms to ~16s
		loadErrors: counter("dataset_load_errors_total", "Total number of failed table loads by error category",
			"habitat", "category"),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dataset_table_rows",
			Help: "Number of rows in the currently loaded table",
		}, []string{"habitat"}),
		droppedRows: counter("dataset_dropped_rows_total", "Rows skipped during load because of unparsable dates",
			"habitat"),
		cacheLookups: counter("dataset_cache_lookups_total", "Table store lookups by result",
			"habitat", "result"),
	}
	m.collectorSet = collectorSet{m.loads, m.loadDuration, m.loadErrors, m.tableRows, m.droppedRows, m.cacheLookups}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordLoad records a successful load; sourceType is file, http, sqlite,
// mysql, sftp or ftp.
func (m *DatasetMetrics) RecordLoad(habitat, sourceType string, rows, dropped int, seconds float64) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(habitat, sourceType, StatusSuccess).Inc()
	m.loadDuration.WithLabelValues(habitat, sourceType).Observe(seconds)
	m.tableRows.WithLabelValues(habitat).Set(float64(rows))
	if dropped > 0 {
		m.droppedRows.WithLabelValues(habitat).Add(float64(dropped))
	}
}

func (m *DatasetMetrics) RecordLoadError(habitat, sourceType, category string, seconds float64) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(habitat, sourceType, StatusError).Inc()
	m.loadDuration.WithLabelValues(habitat, sourceType).Observe(seconds)
	m.loadErrors.WithLabelValues(habitat, category).Inc()
}

func (m *DatasetMetrics) RecordCacheLookup(habitat string, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(habitat, hitOrMiss(hit)).Inc()
}

// ClearTable drops the row gauge of an invalidated table.
func (m *DatasetMetrics) ClearTable(habitat string) {
	if m == nil {
		return
	}
	m.tableRows.DeleteLabelValues(habitat)
}
