package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/inkpress/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	admin := &Identity{UserID: 1, Role: db.RoleAdmin}
	author := &Identity{UserID: 2, Role: db.RoleAuthor}
	reader := &Identity{UserID: 3, Role: "READER"}

	tests := []struct {
		name string
		id   *Identity
		req  Requirement
		want error
	}{
		{name: "nil session", id: nil, req: RequireSession, want: ErrUnauthorized},
		{name: "zero user", id: &Identity{Role: db.RoleAdmin}, req: RequireSession, want: ErrUnauthorized},
		{name: "any session", id: reader, req: RequireSession, want: nil},
		{name: "author on author path", id: author, req: RequireAuthor, want: nil},
		{name: "admin on author path", id: admin, req: RequireAuthor, want: nil},
		{name: "reader on author path", id: reader, req: RequireAuthor, want: ErrForbidden},
		{name: "author on admin path", id: author, req: RequireAdmin, want: ErrForbidden},
		{name: "admin on admin path", id: admin, req: RequireAdmin, want: nil},
		{name: "nil on admin path", id: nil, req: RequireAdmin, want: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, expiresAt, err := issuer.Issue(Identity{UserID: 7, Name: "Ada", Email: "ada@example.com", Role: db.RoleAuthor})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.UserID)
	assert.Equal(t, "Ada", id.Name)
	assert.Equal(t, db.RoleAuthor, id.Role)
	assert.False(t, id.IsAdmin())
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Minute)
	token, _, err := issuer.Issue(Identity{UserID: 1, Role: db.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Minute).Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	later := NewTokenIssuer("secret-a", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresUser(t *testing.T) {
	_, _, err := NewTokenIssuer("s", 0).Issue(Identity{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEmptySecretRefusesTokens(t *testing.T) {
	issuer := NewTokenIssuer("", time.Hour)

	_, _, err := issuer.Issue(Identity{UserID: 1, Role: db.RoleAdmin})
	assert.ErrorIs(t, err, ErrMissingSecret)

	signed, _, err := NewTokenIssuer("real-secret", time.Hour).Issue(Identity{UserID: 1, Role: db.RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestEphemeralTokenIssuer(t *testing.T) {
	first := NewEphemeralTokenIssuer(time.Hour)
	second := NewEphemeralTokenIssuer(time.Hour)

	token, _, err := first.Issue(Identity{UserID: 3, Role: db.RoleAuthor})
	require.NoError(t, err)

	id, err := first.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), id.UserID)

	_, err = second.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsAdmin(t *testing.T) {
	var missing *Identity
	assert.False(t, missing.IsAdmin())
	assert.False(t, (&Identity{UserID: 1, Role: db.RoleAuthor}).IsAdmin())
	assert.True(t, (&Identity{UserID: 1, Role: db.RoleAdmin}).IsAdmin())
}
