package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Metrics holds the run counters. Every method is safe on a nil receiver so
// components can be built without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	fetches     *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	rows        *prometheus.CounterVec
	pagesFailed *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewMetrics registers the counters on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_fetches_total",
			Help: "Portal API fetches by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_session_acquisitions_total",
			Help: "Cookie session acquisitions by result.",
		}, []string{"result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_rows_written_total",
			Help: "Rows handed to the sink and persisted.",
		}, []string{"destination"}),
		pagesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_pages_failed_total",
			Help: "Pages skipped after a failed fetch or an unusable body.",
		}, []string{"endpoint"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_resolutions_total",
			Help: "Entity resolutions by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.fetches, m.sessions, m.rows, m.pagesFailed, m.resolutions)
	return m
}

// Fetch counts one fetch outcome ("ok" or "failed").
func (m *Metrics) Fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// Session counts one acquisition ("full" or "degraded").
func (m *Metrics) Session(result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(result).Inc()
}

// Rows adds n persisted rows for destination.
func (m *Metrics) Rows(destination string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(destination).Add(float64(n))
}

// PageFailed counts one skipped page for endpoint.
func (m *Metrics) PageFailed(endpoint string) {
	if m == nil {
		return
	}
	m.pagesFailed.WithLabelValues(endpoint).Inc()
}

// Resolution counts one resolver outcome ("exact", "fuzzy" or "none").
func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return eris.Wrapf(err, "monitoring: write textfile %s", path)
	}
	return nil
}
