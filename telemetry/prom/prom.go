// Package prom adapts telemetry.Sink to Prometheus client metrics.
package prom

import (
	"time"

	"github.com/cachelon-go/cachelon/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements telemetry.Sink and exports Prometheus counters,
// a duration histogram, and gauges.
type Adapter struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gauges   *prometheus.GaugeVec
}

// New constructs a Prometheus-backed Sink.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
func New(reg prometheus.Registerer, ns, sub string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "events_total",
			Help:      "Cache events by cache, tier position, and event kind",
		}, []string{"cache_name", "tier_position", "event"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "operation_duration_seconds",
			Help:      "Cache operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache_name", "operation"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "gauge",
			Help:      "Cache gauges (e.g. tier size) by cache and gauge name",
		}, []string{"cache_name", "gauge"}),
	}
	reg.MustRegister(a.events, a.duration, a.gauges)
	return a
}

// EmitCounter increments the event counter, labeled by cache.name,
// tier.position, and event from attrs.
func (a *Adapter) EmitCounter(attrs telemetry.Attrs) {
	a.events.WithLabelValues(
		attrs[telemetry.AttrCacheName],
		attrs[telemetry.AttrTierPosition],
		attrs[telemetry.AttrEvent],
	).Inc()
}

// RecordDuration observes d against the operation duration histogram,
// labeled by cache.name from attrs and the given operation.
func (a *Adapter) RecordDuration(op string, d time.Duration, attrs telemetry.Attrs) {
	a.duration.WithLabelValues(attrs[telemetry.AttrCacheName], op).Observe(d.Seconds())
}

// SetGauge sets the named gauge to v, labeled by cache.name from attrs.
func (a *Adapter) SetGauge(name string, v float64, attrs telemetry.Attrs) {
	a.gauges.WithLabelValues(attrs[telemetry.AttrCacheName], name).Set(v)
}

// compile-time check: Adapter implements telemetry.Sink.
var _ telemetry.Sink = (*Adapter)(nil)
