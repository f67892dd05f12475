package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskboard/pkg/config"
	"taskboard/pkg/trace"
)

var Log *zap.Logger

// NewLogger builds a production zap logger. Level and encoding fall back to
// "info" and "json" when unset or unparseable.
func NewLogger(cfg config.LogConfig) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level)); err == nil && cfg.Level != "" {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if enc := strings.TrimSpace(cfg.Encoding); enc == "console" || enc == "json" {
		zcfg.Encoding = enc
	}
	if zcfg.Encoding == "console" {
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithTrace returns logger enriched with the trace_id carried by ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
