// Package ipaddress resolves the IP address recorded on campaign event logs.
package ipaddress

import (
	"context"
	"net"

	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

// DefaultAddress is recorded when no client address is known, for example
// when a worker executes a campaign on its own.
const DefaultAddress = "127.0.0.1"

// Resolver reads the client IP that the HTTP middleware stored in the context.
type Resolver struct {
	fallback string
}

// NewResolver returns a Resolver that falls back to fallback, or to
// DefaultAddress when fallback is not a valid IP.
func NewResolver(fallback string) *Resolver {
	if net.ParseIP(fallback) == nil {
		fallback = DefaultAddress
	}
	return &Resolver{fallback: fallback}
}

// CurrentIPAddress returns the client IP of the request in ctx.
func (r *Resolver) CurrentIPAddress(ctx context.Context) string {
	if ip := middleware.GetClientIP(ctx); net.ParseIP(ip) != nil {
		return ip
	}
	return r.fallback
}
