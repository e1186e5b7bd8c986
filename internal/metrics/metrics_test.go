package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerExposesCollectors(t *testing.T) {
	RenderPasses.WithLabelValues("metrics-test").Inc()
	RenderResults.WithLabelValues("metrics-test", "drawn").Inc()
	SkippedPoints.WithLabelValues("metrics-test").Add(2)

	if got := testutil.ToFloat64(SkippedPoints.WithLabelValues("metrics-test")); got != 2 {
		t.Fatalf("skipped points = %v; want 2", got)
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"trackmap_render_passes_total",
		"trackmap_render_results_total",
		"trackmap_render_skipped_points_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output lacks %s", name)
		}
	}
}
