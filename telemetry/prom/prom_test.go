package prom

import (
	"testing"
	"time"

	"github.com/cachelon-go/cachelon/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAdapter_EmitCounterIncrementsLabeledSeries(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	a := New(reg, "cachelon_test", "emit")

	attrs := telemetry.Attrs{
		telemetry.AttrCacheName:    "users",
		telemetry.AttrTierPosition: "memory",
		telemetry.AttrEvent:        telemetry.EventHit,
	}
	a.EmitCounter(attrs)
	a.EmitCounter(attrs)

	got := testutil.ToFloat64(a.events.WithLabelValues("users", "memory", telemetry.EventHit))
	require.Equal(t, float64(2), got)
}

func TestAdapter_RecordDurationObservesHistogram(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	a := New(reg, "cachelon_test", "duration")

	a.RecordDuration("get", 10*time.Millisecond, telemetry.Attrs{telemetry.AttrCacheName: "users"})

	count := testutil.CollectAndCount(a.duration)
	require.Equal(t, 1, count)
}

func TestAdapter_SetGaugeReportsValue(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	a := New(reg, "cachelon_test", "gauge")

	a.SetGauge("tier_size", 7, telemetry.Attrs{telemetry.AttrCacheName: "users"})

	got := testutil.ToFloat64(a.gauges.WithLabelValues("users", "tier_size"))
	require.Equal(t, float64(7), got)
}

func TestAdapter_ImplementsSink(t *testing.T) {
	t.Parallel()
	var _ telemetry.Sink = (*Adapter)(nil)
}
