// Package metrics exposes host lifecycle and dispatch metrics through
// Prometheus collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Update delivery outcomes.
const (
	UpdateDelivered = "delivered"
	UpdateCoalesced = "coalesced"
	UpdateDropped   = "dropped"
	UpdatePanicked  = "panicked"
)

// Recorder collects host metrics. A nil *Recorder records nothing.
type Recorder struct {
	operations *prometheus.HistogramVec
	active     prometheus.Gauge
	updates    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "remotehost",
			Name:      "operation_duration_seconds",
			Help:      "Duration of host operations such as mount, unmount and action execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "remotehost",
			Name:      "mounted_controls",
			Help:      "Controls currently mounted.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remotehost",
			Name:      "context_updates_total",
			Help:      "Context update notifications by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{r.operations, r.active, r.updates} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Observe records the duration and result of an operation.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, d time.Duration) {
	if r == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	r.operations.WithLabelValues(operation, result).Observe(d.Seconds())
}

// Mounted increments the mounted control gauge.
func (r *Recorder) Mounted() {
	if r == nil {
		return
	}
	r.active.Inc()
}

// Unmounted decrements the mounted control gauge.
func (r *Recorder) Unmounted() {
	if r == nil {
		return
	}
	r.active.Dec()
}

// Update counts a context update with the given outcome.
func (r *Recorder) Update(outcome string) {
	if r == nil {
		return
	}
	r.updates.WithLabelValues(outcome).Inc()
}

// Collectors returns the underlying collectors.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.operations, r.active, r.updates}
}
