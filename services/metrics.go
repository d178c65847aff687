// services/metrics.go
package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	analyses        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	discovery       *prometheus.CounterVec
	consensusBoosts prometheus.Counter
	competitors     *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visibility",
			Name:      "analyses_total",
			Help:      "Responses analyzed, by requested and published strategy.",
		}, []string{"requested", "used", "brand_present"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "visibility",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing one response.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"used"}),
		discovery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visibility",
			Name:      "discovery_total",
			Help:      "Discovery outcomes per analysis.",
		}, []string{"status"}),
		consensusBoosts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visibility",
			Name:      "consensus_boosts_total",
			Help:      "Analyses where a cross-provider consensus boost kept a competitor.",
		}),
		competitors: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "visibility",
			Name:      "competitors_found",
			Help:      "Competitors published per analysis.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
		}, []string{"used"}),
	}
	reg.MustRegister(m.analyses, m.duration, m.discovery, m.consensusBoosts, m.competitors)
	return m
}

// ObserveAnalysis records one finished analysis
func (m *Metrics) ObserveAnalysis(result *models.AnalysisResult, elapsed time.Duration) {
	if m == nil || result == nil {
		return
	}
	meta := result.Metadata
	used := string(meta.StrategyUsed)
	present := "false"
	if result.BrandPresent {
		present = "true"
	}

	m.analyses.WithLabelValues(string(meta.StrategyRequested), used, present).Inc()
	m.duration.WithLabelValues(used).Observe(elapsed.Seconds())
	m.competitors.WithLabelValues(used).Observe(float64(len(result.Competitors)))
	if meta.DiscoveryStatus != "" {
		m.discovery.WithLabelValues(meta.DiscoveryStatus).Inc()
	}
	if meta.ConsensusBoost {
		m.consensusBoosts.Inc()
	}
}
