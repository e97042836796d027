// Package logger provides adapters for the logging interface.
package logger

import (
	"context"
)

// Logger defines the logging interface used throughout the application.
// External loggers that implement these methods can be wrapped with ZapAdapter.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]any)
	Debug(ctx context.Context, msg string, fields map[string]any)
	Warn(ctx context.Context, msg string, fields map[string]any)
	Error(ctx context.Context, msg string, err error, fields map[string]any)
}

// ZapAdapter adapts a zap-backed Logger to the application's logging
// interface, stamping every record with the invocation ID so hook runs can
// be correlated across commands.
type ZapAdapter struct {
	log          Logger
	invocationID string
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
// invocationID is attached to every log record; pass "" to omit it.
func NewZapAdapter(log Logger, invocationID string) *ZapAdapter {
	return &ZapAdapter{log: log, invocationID: invocationID}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]any) {
	a.log.Info(ctx, msg, a.stamp(fields))
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]any) {
	a.log.Debug(ctx, msg, a.stamp(fields))
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]any) {
	a.log.Warn(ctx, msg, a.stamp(fields))
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]any) {
	a.log.Error(ctx, msg, err, a.stamp(fields))
}

func (a *ZapAdapter) stamp(fields map[string]any) map[string]any {
	if a.invocationID == "" {
		return fields
	}
	stamped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped["invocation_id"] = a.invocationID
	return stamped
}
