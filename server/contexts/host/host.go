// Package host enables setting and reading
// the current host from context
package host

import (
	"context"

	"github.com/fincham/mango/server/mango"
)

type key int

const hostKey key = 0

// NewContext returns a new context carrying the current authenticated host.
func NewContext(ctx context.Context, host *mango.Host) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

// FromContext extracts the authenticated host from context if present.
func FromContext(ctx context.Context) (*mango.Host, bool) {
	host, ok := ctx.Value(hostKey).(*mango.Host)
	return host, ok
}
