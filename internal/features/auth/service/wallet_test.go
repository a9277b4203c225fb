package service

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/auth/models"
)

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, username, email, passwordHash, setupToken string, setupExpiry time.Time) (*models.User, error) {
	return r.add(&models.User{
		Username:                  username,
		Email:                     email,
		PasswordHash:              passwordHash,
		IsActive:                  true,
		WalletSetupToken:          &setupToken,
		WalletSetupTokenExpiresAt: &setupExpiry,
	}), nil
}

func (r *fakeUserRepo) ByID(ctx context.Context, id int64) (*models.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	for _, u := range r.users {
		if u.WalletAddress != nil && *u.WalletAddress == walletAddress {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) BySetupToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.WalletSetupToken != nil && *u.WalletSetupToken == token {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, id int64) error { return nil }

func (r *fakeUserRepo) LinkWallet(ctx context.Context, id int64, walletAddress string) error {
	u := r.users[id]
	u.WalletAddress = &walletAddress
	u.WalletSetupToken = nil
	u.WalletSetupTokenExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetSetupToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	u := r.users[id]
	u.WalletSetupToken = &token
	u.WalletSetupTokenExpiresAt = &expiry
	return nil
}

func testWallet(t *testing.T) (solana.PrivateKey, string) {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return priv, priv.PublicKey().String()
}

func signMessage(t *testing.T, priv solana.PrivateKey, message string) string {
	t.Helper()
	sig, err := priv.Sign([]byte(message))
	require.NoError(t, err)
	return sig.String()
}

func newWalletService(repo *fakeUserRepo) *WalletService {
	return NewWalletService(repo, NewTokenService(testSecret, 24))
}

func seedPendingUser(repo *fakeUserRepo, setupToken string, expiry time.Time) *models.User {
	return repo.add(&models.User{
		Username:                  "alice",
		Email:                     "alice@example.com",
		IsActive:                  true,
		WalletSetupToken:          &setupToken,
		WalletSetupTokenExpiresAt: &expiry,
	})
}

func TestValidateSetup(t *testing.T) {
	repo := newFakeUserRepo()
	seedPendingUser(repo, "tok-1", time.Now().Add(time.Hour))
	svc := newWalletService(repo)

	resp, err := svc.ValidateSetup(context.Background(), models.ValidateSetupRequest{SetupToken: "tok-1"})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.Challenge)
}

func TestValidateSetupUnknownToken(t *testing.T) {
	svc := newWalletService(newFakeUserRepo())

	_, err := svc.ValidateSetup(context.Background(), models.ValidateSetupRequest{SetupToken: "nope"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid or expired setup token", appErr.Message)
}

func TestValidateSetupExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedPendingUser(repo, "tok-1", time.Now().Add(-time.Hour))
	svc := newWalletService(repo)

	_, err := svc.ValidateSetup(context.Background(), models.ValidateSetupRequest{SetupToken: "tok-1"})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Setup token expired. Please signup again.", appErr.Message)
}

func TestCompleteSetupLinksWallet(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedPendingUser(repo, "tok-1", time.Now().Add(time.Hour))
	svc := newWalletService(repo)

	priv, address := testWallet(t)
	challenge := "challenge-1"

	resp, err := svc.CompleteSetup(context.Background(), models.CompleteSetupRequest{
		SetupToken:    "tok-1",
		WalletAddress: address,
		Signature:     signMessage(t, priv, ConnectMessage(challenge)),
		Challenge:     challenge,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Wallet successfully connected to alice", resp.Message)

	require.NotNil(t, user.WalletAddress)
	assert.Equal(t, address, *user.WalletAddress)
	assert.Nil(t, user.WalletSetupToken)
}

func TestCompleteSetupRejectsBadSignature(t *testing.T) {
	repo := newFakeUserRepo()
	seedPendingUser(repo, "tok-1", time.Now().Add(time.Hour))
	svc := newWalletService(repo)

	priv, address := testWallet(t)

	_, err := svc.CompleteSetup(context.Background(), models.CompleteSetupRequest{
		SetupToken:    "tok-1",
		WalletAddress: address,
		Signature:     signMessage(t, priv, ConnectMessage("some other challenge")),
		Challenge:     "challenge-1",
	})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Signature verification failed", appErr.Message)
}

func TestCompleteSetupRejectsForeignWallet(t *testing.T) {
	repo := newFakeUserRepo()
	priv, address := testWallet(t)

	other := repo.add(&models.User{Username: "bob", Email: "bob@example.com", IsActive: true})
	require.NoError(t, repo.LinkWallet(context.Background(), other.ID, address))

	seedPendingUser(repo, "tok-1", time.Now().Add(time.Hour))
	svc := newWalletService(repo)

	challenge := "challenge-1"
	_, err := svc.CompleteSetup(context.Background(), models.CompleteSetupRequest{
		SetupToken:    "tok-1",
		WalletAddress: address,
		Signature:     signMessage(t, priv, ConnectMessage(challenge)),
		Challenge:     challenge,
	})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "This wallet is already connected to another account: bob", appErr.Message)
}

func TestWalletLogin(t *testing.T) {
	repo := newFakeUserRepo()
	priv, address := testWallet(t)

	user := repo.add(&models.User{Username: "alice", Email: "alice@example.com", IsActive: true})
	require.NoError(t, repo.LinkWallet(context.Background(), user.ID, address))

	svc := newWalletService(repo)
	challenge := "challenge-1"

	resp, err := svc.Login(context.Background(), models.WalletLoginRequest{
		WalletAddress: address,
		Signature:     signMessage(t, priv, LoginMessage(challenge)),
		Challenge:     challenge,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestWalletLoginUnlinkedWallet(t *testing.T) {
	svc := newWalletService(newFakeUserRepo())
	priv, address := testWallet(t)
	challenge := "challenge-1"

	_, err := svc.Login(context.Background(), models.WalletLoginRequest{
		WalletAddress: address,
		Signature:     signMessage(t, priv, LoginMessage(challenge)),
		Challenge:     challenge,
	})
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "No account linked to this wallet", appErr.Message)
}
