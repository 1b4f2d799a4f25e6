package domain

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voicecheck/internal/ports"
)

func register(t *testing.T, svc ports.AuthService, name string) {
	t.Helper()
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: name, Email: name + "@example.com", Password: "pw", ConfirmPassword: "pw",
	})
	require.NoError(t, err)
}

func TestRegisterRules(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)

	_, err := svc.Register(ctx, ports.RegisterInput{Username: "a", Email: "a@x", Password: "1", ConfirmPassword: "2"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = svc.Register(ctx, ports.RegisterInput{Username: "", Email: "a@x", Password: "1", ConfirmPassword: "1"})
	assert.ErrorIs(t, err, ErrMissingField)

	u, err := svc.Register(ctx, ports.RegisterInput{Username: "alice", Email: "alice@x", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.NotEqual(t, "pw", u.Password)

	_, err = svc.Register(ctx, ports.RegisterInput{Username: "alice", Email: "other@x", Password: "pw", ConfirmPassword: "pw"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, ports.RegisterInput{Username: "bob", Email: "alice@x", Password: "pw", ConfirmPassword: "pw"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)
	register(t, svc, "alice")

	_, _, err := svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, user, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	current, err := svc.CurrentUser(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	_, err = svc.CurrentUser(ctx, token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(newMemUsers(), "other-secret", time.Hour)
	_, err = other.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewAuthService(users, "secret", time.Minute).(*authService)
	register(t, svc, "alice")

	token, _, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenClaims(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)
	register(t, svc, "alice")

	token, user, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, user.ID, mustAtoi(t, claims.Subject))
	assert.NotEmpty(t, claims.ID)
}
