package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	namespace string

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendUp       prometheus.Gauge
	assessments     *prometheus.CounterVec
}

// NewCollector creates the collectors under the given namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		namespace: namespace,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of backend API calls per endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Backend API call latency",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
			},
			[]string{"endpoint"},
		),
		backendUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backend_up",
				Help:      "Whether the last health check reached the backend (1) or not (0)",
			},
		),
		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_total",
				Help:      "Total number of completed eligibility assessments per score tier",
			},
			[]string{"tier"},
		),
	}
}

// Register registers all metrics with the given Prometheus registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.requests,
		c.requestDuration,
		c.backendUp,
		c.assessments,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordRequest records a backend call.
func (c *Collector) RecordRequest(endpoint, outcome string, duration time.Duration) {
	c.requests.WithLabelValues(endpoint, outcome).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBackendUp records the latest health check result.
func (c *Collector) RecordBackendUp(up bool) {
	if up {
		c.backendUp.Set(1)
		return
	}
	c.backendUp.Set(0)
}

// RecordAssessment records a completed assessment.
func (c *Collector) RecordAssessment(tier string) {
	c.assessments.WithLabelValues(tier).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
