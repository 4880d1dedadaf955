package session

import (
	"context"
	"time"

	"nexus/cmd/identity"
)

// Principal is the authenticated user carried by a request.
type Principal struct {
	Role            identity.Role
	ID              string
	Email           string
	Name            string
	AuthenticatedAt time.Time
}

// Authenticated reports whether p represents a logged-in user.
func (p Principal) Authenticated() bool {
	return p.Role.Valid() && p.ID != ""
}

// Has reports whether p is logged in with role.
func (p Principal) Has(role identity.Role) bool {
	return p.Authenticated() && p.Role == role
}

type ctxKey int

const principalKey ctxKey = iota

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the request's principal, if one is logged in.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || !p.Authenticated() {
		return Principal{}, false
	}
	return p, true
}
