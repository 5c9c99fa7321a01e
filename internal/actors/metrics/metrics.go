// Package metrics exposes matching activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rbroggi/datingha/internal/core/model"
)

// Collector implements ports.MatchingRecorder on Prometheus.
type Collector struct {
	swipes          *prometheus.CounterVec
	matchesCreated  prometheus.Counter
	prospectsServed prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics in reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		swipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datingha_swipes_total",
			Help: "Swipes processed, by direction and whether an earlier swipe on the pair won.",
		}, []string{"direction", "duplicate"}),
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "datingha_matches_created_total",
			Help: "Matches persisted for the first time.",
		}),
		prospectsServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "datingha_prospects_served",
			Help:    "Number of prospects returned per discovery request.",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
	reg.MustRegister(c.swipes, c.matchesCreated, c.prospectsServed)
	return c
}

// RecordSwipe counts a swipe.
func (c *Collector) RecordSwipe(direction model.SwipeDirection, duplicate bool) {
	dup := "false"
	if duplicate {
		dup = "true"
	}
	c.swipes.WithLabelValues(string(direction), dup).Inc()
}

// RecordMatchCreated counts a new match.
func (c *Collector) RecordMatchCreated() {
	c.matchesCreated.Inc()
}

// RecordProspectsServed observes a discovery result size.
func (c *Collector) RecordProspectsServed(count int) {
	c.prospectsServed.Observe(float64(count))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
