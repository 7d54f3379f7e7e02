package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the render counters of one server. Each server owns its
// registry so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	Pages          prometheus.Histogram
	Warnings       prometheus.Counter
}

// NewMetrics creates and registers the server metrics
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixundfertig_renders_total",
			Help: "Render requests by outcome",
		}, []string{"outcome"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fixundfertig_render_duration_seconds",
			Help:    "Duration of successful renders",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Pages: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fixundfertig_render_pages",
			Help:    "Pages per rendered invoice",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		}),
		Warnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixundfertig_render_warnings_total",
			Help: "Warnings attached to rendered invoices",
		}),
	}
}

// ObserveRender records a successful render.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRender(start time.Time, pages, warnings int) {
	m.Renders.WithLabelValues("ok").Inc()
	m.RenderDuration.Observe(time.Since(start).Seconds())
	m.Pages.Observe(float64(pages))
	m.Warnings.Add(float64(warnings))
}

// IncrementFailed records a render that returned an error
func (m *Metrics) IncrementFailed(outcome string) {
	m.Renders.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
