package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Health holds the prometheus metrics describing the exporter itself
type Health struct {
	registry *prometheus.Registry

	Cycles       prometheus.Counter
	CycleErrors  prometheus.Counter
	Points       prometheus.Counter
	LastPoints   prometheus.Gauge
	CycleSeconds prometheus.Histogram
}

// NewHealth creates the health metrics, registered in their own prometheus registry
func NewHealth() *Health {
	reg := prometheus.NewRegistry()
	h := &Health{
		registry: reg,
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "krakend_newrelic",
			Name:      "report_cycles_total",
			Help:      "Total report cycles started.",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "krakend_newrelic",
			Name:      "report_errors_total",
			Help:      "Total report cycles aborted by a sink error.",
		}),
		Points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "krakend_newrelic",
			Name:      "points_total",
			Help:      "Total points sent to the sinks.",
		}),
		LastPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "krakend_newrelic",
			Name:      "last_cycle_points",
			Help:      "Points sent during the last report cycle.",
		}),
		CycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "krakend_newrelic",
			Name:      "report_duration_seconds",
			Help:      "Duration of the report cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	reg.MustRegister(h.Cycles, h.CycleErrors, h.Points, h.LastPoints, h.CycleSeconds)
	return h
}

// Registry returns the prometheus registry holding the health metrics
func (h *Health) Registry() *prometheus.Registry {
	return h.registry
}

func (h *Health) observe(points int, d time.Duration, err error) {
	h.Cycles.Inc()
	h.Points.Add(float64(points))
	h.LastPoints.Set(float64(points))
	h.CycleSeconds.Observe(d.Seconds())
	if err != nil {
		h.CycleErrors.Inc()
	}
}
