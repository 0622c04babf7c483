// Package logging defines the structured-logging interface used across
// notevault, with slog and zap adapters.
//
// Request-scoped fields travel in the context (see ContextWith), so code deep
// in a call chain logs them without having to receive a derived logger.
package logging

import "context"

// Logger logs a message with key-value pairs:
//
//	log.Warn(ctx, "media removal failed", "ref", ref, "err", err)
//
// Fields attached to ctx come first.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every entry.
	With(args ...any) Logger
}
