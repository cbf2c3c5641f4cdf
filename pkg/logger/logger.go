package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type contextKey struct{}

type actorKey struct{}

// Setup installs the process-wide slog handler. Output goes to stderr so the
// interactive menu on stdout stays readable.
func Setup(level string, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

func New(w io.Writer, level string, format string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// WithActor tags ctx with the user id of the logged-in session.
func WithActor(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if requestID, ok := ctx.Value(contextKey{}).(string); ok {
		logger = logger.With("request_id", requestID)
	}
	if actor, ok := ctx.Value(actorKey{}).(int); ok {
		logger = logger.With("actor_id", actor)
	}
	return logger
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
