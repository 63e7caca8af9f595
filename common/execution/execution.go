// Package execution carries campaign execution state through a context.
//
// A campaign event is either triggered by the system (a worker consuming the
// trigger subject, or a replay run from the CLI) or by a user acting through
// the HTTP API. Event logs record which of the two produced them.
package execution

import (
	"context"
	"sync/atomic"
)

type contextKey string

const (
	systemTriggeredKey = contextKey("system-triggered")
	executionIDKey     = contextKey("execution-id")
)

// processDefault is consulted when a context carries no explicit flag.
var processDefault atomic.Bool

// SetSystemTriggered sets the process-wide default for IsSystemTriggered.
// Worker entrypoints call this once at startup.
func SetSystemTriggered(v bool) {
	processDefault.Store(v)
}

// WithSystemTriggered returns a context that overrides the process-wide flag.
func WithSystemTriggered(ctx context.Context, v bool) context.Context {
	return context.WithValue(ctx, systemTriggeredKey, v)
}

// IsSystemTriggered reports whether the current execution was started by the
// system rather than a user.
func IsSystemTriggered(ctx context.Context) bool {
	if v, ok := ctx.Value(systemTriggeredKey).(bool); ok {
		return v
	}
	return processDefault.Load()
}

// WithID attaches an execution ID to ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionIDKey, id)
}

// ID returns the execution ID stored in ctx, or an empty string.
func ID(ctx context.Context) string {
	if id, ok := ctx.Value(executionIDKey).(string); ok {
		return id
	}
	return ""
}
