package entity

import "context"

// Logger specifies a contextual, structured logger.
type Logger interface {
	Info(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, err error, kv ...any)
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Info(ctx context.Context, msg string, kv ...any)             {}
func (NoopLogger) Error(ctx context.Context, msg string, err error, kv ...any) {}

// OrNoop returns lgr, or a NoopLogger when lgr is nil.
func OrNoop(lgr Logger) Logger {
	if lgr == nil {
		return NoopLogger{}
	}
	return lgr
}
