// auth/auth_test.go
package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asinfra/adconsole/auth"
	apperrors "github.com/asinfra/adconsole/errors"
	"github.com/asinfra/adconsole/model"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/storage/memory"
)

const testSecret = "unit-test-signing-secret"

// newTestService seeds a backend with one user and returns their live
// credentials.
func newTestService(t *testing.T) (*auth.Service, *auth.MemorySessionStore, string, string) {
	t.Helper()
	ctx := context.Background()

	backend := memory.New()
	u, err := backend.CreateUser(ctx, model.InsertUser{
		SAMAccountName: "jdoe",
		DisplayName:    "John Doe",
		Email:          "jdoe@as.com",
	})
	require.NoError(t, err)
	_, password, err := backend.ResetPassword(ctx, u.ID)
	require.NoError(t, err)

	sessions := auth.NewMemorySessionStore()
	svc, err := auth.NewService(sessions, storage.NewActive(backend), time.Hour, testSecret)
	require.NoError(t, err)
	return svc, sessions, "jdoe", password
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewService(auth.NewMemorySessionStore(), storage.NewActive(memory.New()), time.Hour, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	svc, _, username, password := newTestService(t)
	ctx := context.Background()

	token, session, err := svc.Login(ctx, username, password)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, username, session.Username)
	assert.True(t, session.ExpiresAt.After(session.IssuedAt))

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, resolved.ID)
	assert.Equal(t, username, resolved.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, username, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, username, "not-the-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = svc.Login(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestResolveRejectsTamperedToken(t *testing.T) {
	svc, _, username, password := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, username, password)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, token+"x")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogoutClosesSession(t *testing.T) {
	svc, _, username, password := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, username, password)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	// Logging out twice reports the session as gone.
	assert.ErrorIs(t, svc.Logout(ctx, token), apperrors.ErrSessionNotFound)
}

func TestResolveDropsExpiredSession(t *testing.T) {
	svc, sessions, username, password := newTestService(t)
	ctx := context.Background()

	token, session, err := svc.Login(ctx, username, password)
	require.NoError(t, err)

	// Age the stored session past its lifetime; the token itself is still
	// within its validity window.
	session.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, sessions.Save(ctx, session))

	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}
