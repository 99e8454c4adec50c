package via

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the optional Prometheus instrumentation, enabled through
// Options.Metrics. The /_stats endpoint stays the primary observability
// surface; these counters exist for scrape-based setups.
type metrics struct {
	registry    *prometheus.Registry
	renders     prometheus.Counter
	broadcasts  prometheus.Counter
	actions     prometheus.Counter
	sseConnects prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		renders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "via",
			Name:      "renders_total",
			Help:      "Total number of view renders (cache hits excluded).",
		}),
		broadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "via",
			Name:      "broadcasts_total",
			Help:      "Total number of scope broadcasts.",
		}),
		actions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "via",
			Name:      "actions_total",
			Help:      "Total number of dispatched action requests.",
		}),
		sseConnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "via",
			Name:      "sse_connects_total",
			Help:      "Total number of established SSE connections.",
		}),
	}
}

func (m *metrics) handler() http.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}
