// Package database holds helpers shared by the PostgreSQL repositories.
package database

import (
	"context"
	"fmt"
	"time"
)

// Standard timeout durations for database operations
const (
	// DefaultQueryTimeout is the timeout for read queries and pings
	DefaultQueryTimeout = 5 * time.Second

	// DefaultWriteTimeout is the timeout for single-row writes
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBulkTimeout is the timeout for batched writes of event logs
	DefaultBulkTimeout = 30 * time.Second
)

// QueryContext creates a context with DefaultQueryTimeout.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext creates a context with DefaultWriteTimeout.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}

// BulkContext creates a context with DefaultBulkTimeout.
// Use this for batch inserts and migrations.
func BulkContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultBulkTimeout)
}

// ConnString builds a PostgreSQL URL from its parts.
func ConnString(user, password, host string, port int, dbname, sslmode string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", user, password, host, port, dbname, sslmode)
}
