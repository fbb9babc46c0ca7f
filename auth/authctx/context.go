// Package authctx carries the authenticated principal through a request context.
//
// The request gate stores the principal once a bearer token has been
// validated; handlers and the authorization policy read it back.
//
//	ctx = authctx.Set(ctx, user)
//	p, ok := authctx.Current(ctx)
//	u, err := authctx.GetOrError[*identity.Identity](ctx)
package authctx

import (
	"context"
	"errors"
)

// Principal is an authenticated caller.
type Principal interface {
	// Subject is the unique name the principal is addressed by in tokens.
	Subject() string
	// Authorities lists the role names granted to the principal.
	Authorities() []string
}

type contextKey struct{}

// ErrNoPrincipal is returned when no principal is present in the context.
var ErrNoPrincipal = errors.New("authctx: no authenticated principal in context")

// Set stores the principal in the context, replacing any earlier one.
func Set(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// Current returns the principal stored in the context, if any.
func Current(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p != nil
}

// IsAuthenticated reports whether a principal has been stored in the context.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := Current(ctx)
	return ok
}

// Get retrieves the principal as a concrete type T.
// Returns the zero value and false if absent or of a different type.
func Get[T Principal](ctx context.Context) (T, bool) {
	p, ok := Current(ctx)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := p.(T)
	return v, ok
}

// GetOrError retrieves the principal as T, returning ErrNoPrincipal if
// absent or of a different type.
func GetOrError[T Principal](ctx context.Context) (T, error) {
	v, ok := Get[T](ctx)
	if !ok {
		return v, ErrNoPrincipal
	}
	return v, nil
}

// HasAuthority reports whether the principal in ctx holds any of roles.
// An empty roles list only requires authentication.
func HasAuthority(ctx context.Context, roles ...string) bool {
	p, ok := Current(ctx)
	if !ok {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, have := range p.Authorities() {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
