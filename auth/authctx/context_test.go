package authctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	email string
	roles []string
}

func (u *user) Subject() string       { return u.email }
func (u *user) Authorities() []string { return u.roles }

type apiKey struct{}

func (apiKey) Subject() string       { return "key" }
func (apiKey) Authorities() []string { return nil }

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	assert.False(t, IsAuthenticated(ctx))
	_, ok := Current(ctx)
	assert.False(t, ok)

	_, err := GetOrError[*user](ctx)
	assert.ErrorIs(t, err, ErrNoPrincipal)
	assert.False(t, HasAuthority(ctx))
}

func TestSetAndGet(t *testing.T) {
	u := &user{email: "john@x.io", roles: []string{"ROLE_USER"}}
	ctx := Set(context.Background(), u)

	require.True(t, IsAuthenticated(ctx))
	got, err := GetOrError[*user](ctx)
	require.NoError(t, err)
	assert.Same(t, u, got)

	p, ok := Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "john@x.io", p.Subject())
}

func TestGetWrongType(t *testing.T) {
	ctx := Set(context.Background(), apiKey{})

	_, ok := Get[*user](ctx)
	assert.False(t, ok)
	_, err := GetOrError[*user](ctx)
	assert.ErrorIs(t, err, ErrNoPrincipal)
}

func TestSetNilPrincipal(t *testing.T) {
	ctx := Set(context.Background(), nil)
	assert.False(t, IsAuthenticated(ctx))
}

func TestHasAuthority(t *testing.T) {
	ctx := Set(context.Background(), &user{email: "a@x.io", roles: []string{"ROLE_USER"}})

	assert.True(t, HasAuthority(ctx))
	assert.True(t, HasAuthority(ctx, "ROLE_ADMIN", "ROLE_USER"))
	assert.False(t, HasAuthority(ctx, "ROLE_ADMIN"))
}
