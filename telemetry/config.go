package telemetry

import "go.uber.org/zap"

// Config configures a cache's telemetry. Use the builder methods to enable
// logging and/or a metrics sink, then pass the result to
// cachelon.Builder.Telemetry. The zero value has everything disabled.
type Config struct {
	logsEnabled bool
	logger      *zap.Logger
	sink        Sink
}

// NewConfig returns a Config with logging and metrics both disabled.
func NewConfig() Config { return Config{} }

// WithLogs enables structured logging of swallowed internal events (refresh
// failures, promotion failures, telemetry emission never fails anything but
// its own errors are still worth knowing about) via logger. A nil logger
// defaults to zap's production logger.
func (c Config) WithLogs(logger *zap.Logger) Config {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	c.logsEnabled = true
	c.logger = logger
	return c
}

// WithMetrics enables metrics emission via sink (typically a
// telemetry/prom.Adapter backed by a Prometheus registry).
func (c Config) WithMetrics(sink Sink) Config {
	c.sink = sink
	return c
}

// LogsEnabled reports whether logging was enabled.
func (c Config) LogsEnabled() bool { return c.logsEnabled }

// Logger returns the configured logger, or zap.NewNop() if none was set.
func (c Config) Logger() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

// Build returns the Sink this config resolves to: the configured sink, or
// NoopSink if metrics were never enabled.
func (c Config) Build() Sink {
	if c.sink == nil {
		return NoopSink{}
	}
	return c.sink
}
