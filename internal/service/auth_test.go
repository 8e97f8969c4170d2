package service

import (
	"encoding/json"
	"strings"
	"testing"

	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	user, err := svc.auth.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "long-enough-password",
		Name:     "Cook",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.True(t, strings.HasPrefix(user.ID, "user-"))
	assert.Equal(t, "cook@example.com", user.Email)
	assert.Equal(t, "Cook", user.Name)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "long-enough-password", user.PasswordHash)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	_, err := svc.auth.Register(ctx, RegisterRequest{
		Email:    "Cook@Example.COM", // case-insensitive collision
		Password: "another-password1",
		Name:     "Other",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "long-enough-pw", Name: "X"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short", Name: "X"}},
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "long-enough-pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	resp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)
	assert.Greater(t, resp.ExpiresIn, 0)
	assert.False(t, resp.User.LastLoginAt.IsZero())
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "cook@example.com", Password: "wrong-password-here"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "correct-horse-battery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Login(ctx, tt.req)
			require.Error(t, err)
			// Both cases must be indistinguishable
			assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
		})
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	userID := registerUser(t, svc, "cook@example.com")

	user, err := svc.store.GetUser(ctx, userID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, svc.store.UpdateUser(ctx, user))

	_, err = svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)
	// Inactive accounts look the same as bad credentials
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	loginResp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	refreshResp, err := svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, loginResp.RefreshToken, refreshResp.RefreshToken)
	assert.Equal(t, loginResp.SessionID, refreshResp.SessionID)

	// The old refresh token is dead after rotation
	_, err = svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTokenExpired))

	// The new one still works
	_, err = svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: refreshResp.RefreshToken,
	})
	require.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	loginResp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, svc.auth.Logout(ctx, loginResp.SessionID))

	// Refresh token is revoked with the session
	_, err = svc.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.Error(t, err)

	// Logout is idempotent
	require.NoError(t, svc.auth.Logout(ctx, loginResp.SessionID))
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	userID := registerUser(t, svc, "cook@example.com")

	loginResp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	user, claims, err := svc.auth.VerifyAccessToken(ctx, loginResp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "cook@example.com", claims.Email)

	_, _, err = svc.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	require.Error(t, err)
}

func TestAuthService_VerifyAccessToken_InactiveUser(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	userID := registerUser(t, svc, "cook@example.com")

	loginResp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	user, err := svc.store.GetUser(ctx, userID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, svc.store.UpdateUser(ctx, user))

	_, _, err = svc.auth.VerifyAccessToken(ctx, loginResp.AccessToken)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()

	registerUser(t, svc, "cook@example.com")

	resp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "argon2id")
}
