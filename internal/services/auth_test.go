package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) (*services.AuthService, *services.MemoryStore) {
	t.Helper()
	store := services.NewMemoryStore()
	jwtService := services.NewJWTService(testSecret, time.Hour)
	return services.NewAuthService(store, store, jwtService, 500000, 100000, time.Hour), store
}

func TestAuthSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, store := newTestAuth(t)

	result, err := auth.Signup(ctx, "  New.Player@Example.com ", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, "new.player@example.com", result.Account.Email)
	assert.Equal(t, int64(500000), result.Account.Balance(models.ModeFree))
	assert.Equal(t, int64(100000), result.Account.Balance(models.ModeChallenge))
	assert.NotEqual(t, "hunter22", result.Account.PasswordHash)

	stored, err := store.GetAccountByEmail(ctx, "new.player@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, stored.ID)

	session, err := auth.ResolveSession(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, session.AccountID)

	login, err := auth.Login(ctx, "NEW.PLAYER@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, login.Account.ID)
	assert.NotEqual(t, result.Session.SessionID, login.Session.SessionID)
}

func TestAuthRejections(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth(t)

	_, err := auth.Signup(ctx, testEmail, "hunter22")
	require.NoError(t, err)

	_, err = auth.Signup(ctx, testEmail, "another1")
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)

	_, err = auth.Signup(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, models.ErrInvalidSignup)
	_, err = auth.Signup(ctx, "short@example.com", "abc")
	assert.ErrorIs(t, err, models.ErrInvalidSignup)

	_, err = auth.Login(ctx, testEmail, "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "ghost@example.com", "hunter22")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthLogout(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth(t)

	result, err := auth.Signup(ctx, testEmail, "hunter22")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, result.Session.SessionID))
	_, err = auth.ResolveSession(ctx, result.Token)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestAuthRecover(t *testing.T) {
	auth, _ := newTestAuth(t)

	msg, err := auth.Recover(context.Background(), "Someone@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "A recovery link has been sent to someone@example.com (Simulation)", msg)

	_, err = auth.Recover(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrInvalidSignup)
}

func TestJWTService(t *testing.T) {
	svc := services.NewJWTService(testSecret, time.Hour)

	token, err := svc.GenerateToken(testAccountID, "sess-1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testAccountID, claims.AccountID)
	assert.Equal(t, "sess-1", claims.SessionID)

	_, err = services.NewJWTService("other-secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	expired, err := services.NewJWTService(testSecret, -time.Minute).GenerateToken(testAccountID, "sess-1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"account_id": testAccountID,
		"session_id": "sess-1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)
}
