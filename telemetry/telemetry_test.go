package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopSink_DiscardsEverything(t *testing.T) {
	t.Parallel()
	var s Sink = NoopSink{}
	// Must not panic regardless of what's passed.
	s.EmitCounter(Attrs{AttrCacheName: "c", AttrEvent: EventHit})
	s.RecordDuration("get", 5*time.Millisecond, Attrs{AttrOperation: "get"})
	s.SetGauge("size", 42, Attrs{AttrCacheName: "c"})
}

func TestConfig_DefaultsToNoopSink(t *testing.T) {
	t.Parallel()
	cfg := NewConfig()
	require.False(t, cfg.LogsEnabled())
	require.IsType(t, NoopSink{}, cfg.Build())
}

func TestConfig_WithMetricsUsesConfiguredSink(t *testing.T) {
	t.Parallel()
	fake := &fakeSink{}
	cfg := NewConfig().WithMetrics(fake)
	require.Same(t, fake, cfg.Build())
}

func TestConfig_WithLogsEnablesLoggingAndDefaultsLogger(t *testing.T) {
	t.Parallel()
	cfg := NewConfig().WithLogs(nil)
	require.True(t, cfg.LogsEnabled())
	require.NotNil(t, cfg.Logger())
}

type fakeSink struct{}

func (*fakeSink) EmitCounter(Attrs)                           {}
func (*fakeSink) RecordDuration(string, time.Duration, Attrs) {}
func (*fakeSink) SetGauge(string, float64, Attrs)             {}
