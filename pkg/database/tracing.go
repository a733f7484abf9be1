package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/coursehub/wishlist/pkg/database"

var slowCommandCfg struct {
	mu        sync.RWMutex
	threshold time.Duration
	logger    *slog.Logger
}

// SetSlowCommandLogging configures slow command detection. Commands at or
// above the threshold are logged as warnings. A zero threshold disables it.
func SetSlowCommandLogging(threshold time.Duration, logger *slog.Logger) {
	slowCommandCfg.mu.Lock()
	defer slowCommandCfg.mu.Unlock()
	slowCommandCfg.threshold = threshold
	slowCommandCfg.logger = logger
}

func getSlowCommandConfig() (time.Duration, *slog.Logger) {
	slowCommandCfg.mu.RLock()
	defer slowCommandCfg.mu.RUnlock()
	return slowCommandCfg.threshold, slowCommandCfg.logger
}

// TraceCommand starts a client span for a Redis command. Call the returned
// function with the command's error once it completes:
//
//	ctx, end := database.TraceCommand(ctx, "GET", key)
//	defer func() { end(err) }()
func TraceCommand(ctx context.Context, command, key string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis."+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", command),
			attribute.String("db.redis.key", key),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		threshold, logger := getSlowCommandConfig()
		if threshold <= 0 || logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= threshold {
			attrs := []any{
				slog.String("command", command),
				slog.String("key", key),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			logger.WarnContext(ctx, "slow redis command", attrs...)
		}
	}
}
