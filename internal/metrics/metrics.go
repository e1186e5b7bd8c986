// Package metrics exposes Prometheus collectors for render passes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RenderPasses counts started passes per panel.
	RenderPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackmap",
		Subsystem: "render",
		Name:      "passes_total",
		Help:      "Render passes started",
	}, []string{"panel"})

	// RenderResults counts finished passes per panel and outcome
	// (drawn, stale, failed).
	RenderResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackmap",
		Subsystem: "render",
		Name:      "results_total",
		Help:      "Render passes finished, by outcome",
	}, []string{"panel", "outcome"})

	// BackgroundLoadDuration observes background fetch and decode time.
	BackgroundLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trackmap",
		Subsystem: "background",
		Name:      "load_duration_seconds",
		Help:      "Background image fetch and decode time",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
	}, []string{"panel"})

	// SkippedPoints counts track points dropped for non-finite projection.
	SkippedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackmap",
		Subsystem: "render",
		Name:      "skipped_points_total",
		Help:      "Track points dropped because their projection was not finite",
	}, []string{"panel"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
