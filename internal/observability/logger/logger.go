// Package logger wires the application zap logger and trace correlation.
package logger

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(func(log *zap.Logger) {
		zap.ReplaceGlobals(log)
	}),
)

// Config selects the logger preset.
type Config struct {
	Level       string
	Development bool
}

// New builds the process-wide logger.
func New(cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level := strings.TrimSpace(cfg.Level); level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = parsed
	}
	return zapCfg.Build()
}

// FromContext returns the global logger enriched with the current trace
// and span identifiers, when a recording span is present.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	span := trace.SpanContextFromContext(ctx)
	if span.HasTraceID() {
		log = log.With(zap.String("trace_id", span.TraceID().String()))
	}
	if span.HasSpanID() {
		log = log.With(zap.String("span_id", span.SpanID().String()))
	}
	return log
}
