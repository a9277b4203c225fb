package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/auth/models"
)

func newAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, NewTokenService(testSecret, 24))
}

func TestSignup(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.WalletSetupRequired)
	assert.NotEmpty(t, resp.WalletSetupToken)
	assert.Equal(t, "Account created. Connect your wallet to start trading.", resp.Message)

	stored, err := repo.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "longenough", stored.PasswordHash)
}

func TestSignupSetupTokenExpiresInThirtyMinutes(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "longenough",
	})
	require.NoError(t, err)

	stored, err := repo.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.WalletSetupTokenExpiresAt)

	ttl := time.Until(*stored.WalletSetupTokenExpiresAt)
	assert.Greater(t, ttl, 29*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), models.SignupRequest{Username: "al", Email: "a@b.c", Password: "longenough"})
	assert.Error(t, err)

	_, err = svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "nomail", Password: "longenough"})
	assert.Error(t, err)

	_, err = svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "a@b.c", Password: "short"})
	assert.Error(t, err)
}

func TestSignupDuplicateEmailAndUsername(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), models.SignupRequest{Username: "bob", Email: "alice@example.com", Password: "longenough"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "An account with this email already exists", appErr.Message)

	_, err = svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "other@example.com", Password: "longenough"})
	require.Error(t, err)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "This username is already taken", appErr.Message)
}

func TestLoginByEmailAndUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	byEmail, err := svc.Login(context.Background(), models.LoginRequest{EmailOrUsername: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.User.Username)
	assert.True(t, byEmail.WalletSetupRequired)

	byName, err := svc.Login(context.Background(), models.LoginRequest{EmailOrUsername: "alice", Password: "longenough"})
	require.NoError(t, err)
	assert.NotEmpty(t, byName.Token)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	for _, req := range []models.LoginRequest{
		{EmailOrUsername: "alice", Password: "wrong password"},
		{EmailOrUsername: "nobody", Password: "longenough"},
	} {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	user, err := repo.ByUsername(context.Background(), "alice")
	require.NoError(t, err)
	user.IsActive = false

	_, err = svc.Login(context.Background(), models.LoginRequest{EmailOrUsername: "alice", Password: "longenough"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Account is deactivated", appErr.Message)
}
