package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role is the caller's platform role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleDelivery, RoleAdmin:
		return true
	}

	return false
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

type ctxKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller stored in ctx.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)

	return c, ok
}
