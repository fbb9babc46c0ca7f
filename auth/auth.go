package auth

import (
	"context"

	"github.com/kbukum/invoicer/auth/authctx"
	"github.com/kbukum/invoicer/auth/jwt"
)

// TokenCodec issues and checks bearer tokens.
// The request gate and the login flow depend on this interface rather than
// on a concrete signer.
//
// Implementations:
//   - *jwt.Codec: HMAC-signed JWTs
type TokenCodec interface {
	// Issue produces a signed token for subject. extra claims may not
	// override registered claim names.
	Issue(subject string, extra map[string]any) (jwt.Token, error)

	// DecodeSubject verifies the signature and returns the subject
	// without checking expiry.
	DecodeSubject(token string) (string, error)

	// IsValid reports whether token is unexpired and belongs to subject.
	IsValid(token, subject string) (bool, error)
}

var _ TokenCodec = (*jwt.Codec)(nil)

// PrincipalLoader resolves a token subject to the principal it names.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, subject string) (authctx.Principal, error)
}

// PrincipalLoaderFunc adapts an ordinary function to the PrincipalLoader interface.
type PrincipalLoaderFunc func(ctx context.Context, subject string) (authctx.Principal, error)

// LoadPrincipal implements PrincipalLoader.
func (f PrincipalLoaderFunc) LoadPrincipal(ctx context.Context, subject string) (authctx.Principal, error) {
	return f(ctx, subject)
}
