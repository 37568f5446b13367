package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec
	CyclesSkipped prometheus.Counter
	FetchDuration prometheus.Histogram
	RowsRendered  prometheus.Gauge
	RequestsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statusboard_cycles_total",
			Help: "The total number of fetch-and-render cycles",
		}, []string{"outcome"}), // ok, empty, fetch_error, format_error
		CyclesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "statusboard_cycles_skipped_total",
			Help: "Cycles skipped because another cycle was still running",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "statusboard_fetch_duration_seconds",
			Help:    "Duration of source fetches",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		RowsRendered: f.NewGauge(prometheus.GaugeOpts{
			Name: "statusboard_rows_rendered",
			Help: "Rows shown by the latest successful cycle",
		}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "statusboard_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveCycle(outcome string, d time.Duration) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) SetRows(n int) {
	m.RowsRendered.Set(float64(n))
}

func (m *Metrics) IncSkipped() {
	m.CyclesSkipped.Inc()
}

func (m *Metrics) IncRequests(method, route, status string) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
