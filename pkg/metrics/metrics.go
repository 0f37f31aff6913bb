package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the analysis pipeline collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	problems        *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	inference       prometheus.Histogram
	modelLoaded     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermascan_upload_requests_total",
			Help: "Upload requests by outcome code",
		}, []string{"outcome"}),
		problems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermascan_detections_total",
			Help: "Detected boxes by resolved condition",
		}, []string{"problem"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermascan_recommendations_total",
			Help: "Recommendation calls by provider and result",
		}, []string{"provider", "result"}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dermascan_inference_seconds",
			Help:    "Detector latency",
			Buckets: prometheus.DefBuckets,
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dermascan_model_loaded",
			Help: "1 when the detection model loaded at startup",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.problems,
		m.recommendations,
		m.inference,
		m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveRequest(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveProblem(problem string) {
	m.problems.WithLabelValues(problem).Inc()
}

func (m *Metrics) ObserveRecommendation(provider string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.recommendations.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration) {
	m.inference.Observe(d.Seconds())
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
