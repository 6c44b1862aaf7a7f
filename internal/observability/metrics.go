// Package observability provides Prometheus metrics for monitoring birdview.
// Sentry error reporting is handled by the telemetry package.
package observability

import (
	stdlog "log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/birdview/internal/errors"
	"github.com/tphakala/birdview/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Dataset   *metrics.DatasetMetrics
	Dashboard *metrics.DashboardMetrics
	HTTP      *metrics.HTTPMetrics
}

// NewMetrics creates a registry with every birdview collector plus Go runtime
// and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	datasetMetrics, err := metrics.NewDatasetMetrics(registry)
	if err != nil {
		return nil, wrapInit("dataset", err)
	}

	dashboardMetrics, err := metrics.NewDashboardMetrics(registry)
	if err != nil {
		return nil, wrapInit("dashboard", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, wrapInit("http", err)
	}

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, wrapInit("go runtime", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, wrapInit("process", err)
	}

	return &Metrics{
		registry:  registry,
		Dataset:   datasetMetrics,
		Dashboard: dashboardMetrics,
		HTTP:      httpMetrics,
	}, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(os.Stderr, "metrics handler: ", stdlog.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

func wrapInit(name string, err error) error {
	return errors.Newf("failed to create %s metrics: %w", name, err).
		Component("observability").
		Category(errors.CategorySystem).
		Build()
}
