package logging

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

type ctxLoggerKey struct {
	Key string
}

var (
	cKey   = ctxLoggerKey{Key: "logger"}
	reqKey = ctxLoggerKey{Key: "request_id"}
)

var fallback atomic.Pointer[slog.Logger]

func init() {
	fallback.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// SetFallbackLogger replaces the logger used for contexts that carry none.
func SetFallbackLogger(l *slog.Logger) {
	fallback.Store(l)
}

func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(cKey).(*slog.Logger)
	if !ok {
		l = fallback.Load()
	}

	// Always attach request ID from context if available
	if requestID := GetRequestIDFromCtx(ctx); requestID != "" {
		l = l.With(slog.String("request_id", requestID))
	}

	return l
}

// Returns logger from context and attaches operation name
func GetLoggerFromContextWithOp(ctx context.Context, op string) *slog.Logger {
	return GetLoggerFromContext(ctx).With(slog.String("op", op))
}

func MakeContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, cKey, logger)
}
