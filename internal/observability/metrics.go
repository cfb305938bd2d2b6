package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, which keeps tests free of global
// registry collisions.
type Metrics struct {
	AnalysisRequests *prometheus.CounterVec
	RateGateDegraded prometheus.Counter
	URLRiskResults   *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	PipelineLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AnalysisRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		RateGateDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_gate_degraded_total",
			Help:      "Rate gate decisions taken under counter store failure.",
		}),
		URLRiskResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_risk_results_total",
			Help:      "URL reputation classifications by risk class.",
		}, []string{"risk"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "External provider errors by provider.",
		}, []string{"provider"}),
		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_latency_ms",
			Help:      "End-to-end analysis pipeline latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

func (m *Metrics) IncRequest(mode, outcome string) {
	if m == nil {
		return
	}
	m.AnalysisRequests.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncRateGateDegraded() {
	if m == nil {
		return
	}
	m.RateGateDegraded.Inc()
}

func (m *Metrics) IncURLRisk(risk string) {
	if m == nil {
		return
	}
	m.URLRiskResults.WithLabelValues(risk).Inc()
}

func (m *Metrics) IncProviderError(provider string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
