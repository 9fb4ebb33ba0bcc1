// Package metrics exposes prometheus collectors for the assessment pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"audiosurv/internal/pipeline"
)

const namespace = "audiosurv"

// PipelineMetrics records submission outcomes, tier latency and store health.
// A nil *PipelineMetrics is a valid no-op.
type PipelineMetrics struct {
	submissionsTotal *prometheus.CounterVec
	outcomesTotal    *prometheus.CounterVec
	tierLatency      *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	finalRatings     *prometheus.CounterVec
	persistFailures  *prometheus.CounterVec
	storedAlerts     prometheus.Gauge
}

// NewPipelineMetrics registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Total audio submissions accepted by the pipeline",
		}, []string{"mime_type"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Terminal submission outcomes by state and the tier that ended them",
		}, []string{"state", "tier"}),
		tierLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tier_duration_seconds",
			Help:      "Latency of analysis tier calls",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"tier", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "in_flight",
			Help:      "Submissions that have not reached a terminal state",
		}),
		finalRatings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "final_ratings_total",
			Help:      "Completed alerts by final threat rating",
		}, []string{"rating"}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Background persistence writes that failed",
		}, []string{"key"}),
		storedAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "alerts",
			Help:      "Alerts currently held in the collection",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.submissionsTotal,
		m.outcomesTotal,
		m.tierLatency,
		m.inFlight,
		m.finalRatings,
		m.persistFailures,
		m.storedAlerts,
	)
	return m
}

// Observe implements pipeline.Observer.
func (m *PipelineMetrics) Observe(e pipeline.Event) {
	if m == nil {
		return
	}
	switch e.To {
	case pipeline.StateSubmitted:
		mimeType := e.MimeType
		if mimeType == "" {
			mimeType = "unknown"
		}
		m.submissionsTotal.WithLabelValues(mimeType).Inc()
		m.inFlight.Inc()
	case pipeline.StateTierOneComplete:
		m.tierLatency.WithLabelValues(string(e.Tier), "ok").Observe(e.Duration.Seconds())
	case pipeline.StateTierTwoComplete:
		m.tierLatency.WithLabelValues(string(e.Tier), "ok").Observe(e.Duration.Seconds())
		m.outcomesTotal.WithLabelValues(string(e.To), string(e.Tier)).Inc()
		m.finalRatings.WithLabelValues(string(e.Alert.ThreatRating)).Inc()
		m.inFlight.Dec()
	case pipeline.StateFailed:
		if e.Duration > 0 {
			m.tierLatency.WithLabelValues(string(e.Tier), "error").Observe(e.Duration.Seconds())
		}
		m.outcomesTotal.WithLabelValues(string(e.To), string(e.Tier)).Inc()
		m.inFlight.Dec()
	}
}

// ObservePersistError counts a failed read or background write for key.
func (m *PipelineMetrics) ObservePersistError(key string, _ error) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(key).Inc()
}

// SetStoredAlerts records the current collection size.
func (m *PipelineMetrics) SetStoredAlerts(n int) {
	if m == nil {
		return
	}
	m.storedAlerts.Set(float64(n))
}
