package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus exports Metrics keys as labelled counters and gauges on a
// private registry.
type Prometheus struct {
	registry *prometheus.Registry
	counters *prometheus.CounterVec
	gauges   *prometheus.GaugeVec
	ticks    prometheus.Histogram
}

// NewPrometheus registers the runtime collectors under namespace.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "llmer"
	}
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		counters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Monotonic runtime counters keyed by metric name.",
			},
			[]string{"key"},
		),
		gauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gauge",
				Help:      "Point-in-time runtime values keyed by metric name.",
			},
			[]string{"key"},
		),
		ticks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent advancing one tick.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
		),
	}
	p.registry.MustRegister(p.counters, p.gauges, p.ticks)
	return p
}

// Add increments the counter for key.
func (p *Prometheus) Add(key string, delta uint64) {
	if p == nil || key == "" {
		return
	}
	p.counters.WithLabelValues(key).Add(float64(delta))
}

// Store sets the gauge for key.
func (p *Prometheus) Store(key string, value uint64) {
	if p == nil || key == "" {
		return
	}
	p.gauges.WithLabelValues(key).Set(float64(value))
}

// ObserveTick records the duration of one tick.
func (p *Prometheus) ObserveTick(d time.Duration) {
	if p == nil {
		return
	}
	p.ticks.Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	if p == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Fanout forwards every update to each non-nil sink.
func Fanout(sinks ...Metrics) Metrics {
	filtered := make(multiMetrics, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return filtered
}

type multiMetrics []Metrics

func (m multiMetrics) Add(key string, delta uint64) {
	for _, sink := range m {
		sink.Add(key, delta)
	}
}

func (m multiMetrics) Store(key string, value uint64) {
	for _, sink := range m {
		sink.Store(key, value)
	}
}

// ObserveTick forwards to every sink that records tick durations.
func (m multiMetrics) ObserveTick(d time.Duration) {
	for _, sink := range m {
		if obs, ok := sink.(interface{ ObserveTick(time.Duration) }); ok {
			obs.ObserveTick(d)
		}
	}
}

var _ Metrics = (*Prometheus)(nil)
