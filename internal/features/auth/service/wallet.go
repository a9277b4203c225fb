package service

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/auth/models"
)

// Messages the wallet must sign. The challenge binds a signature to one
// attempt; it is never stored server side.
const (
	connectMessageTemplate = "Connect wallet to XForce Terminal\n\nChallenge: %s"
	loginMessageTemplate   = "Login to XForce Terminal\n\nChallenge: %s"
)

// WalletService links Solana wallets to accounts and authenticates by
// wallet signature.
type WalletService struct {
	users  UserRepository
	tokens *TokenService
}

func NewWalletService(users UserRepository, tokens *TokenService) *WalletService {
	return &WalletService{users: users, tokens: tokens}
}

// ConnectMessage is the exact text a wallet signs to link itself.
func ConnectMessage(challenge string) string {
	return fmt.Sprintf(connectMessageTemplate, challenge)
}

// LoginMessage is the exact text a wallet signs to log in.
func LoginMessage(challenge string) string {
	return fmt.Sprintf(loginMessageTemplate, challenge)
}

func verifySignature(walletAddress, signature, message string) error {
	pubkey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return errors.NewValidationError("wallet_address", "invalid public key")
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return errors.NewValidationError("signature", "invalid base58 signature")
	}
	if !ed25519.Verify(ed25519.PublicKey(pubkey.Bytes()), []byte(message), sig[:]) {
		return errors.NewUnauthorizedError("Signature verification failed")
	}
	return nil
}

// ValidateSetup checks a setup token and hands out a fresh challenge.
func (s *WalletService) ValidateSetup(ctx context.Context, req models.ValidateSetupRequest) (*models.ValidateSetupResponse, error) {
	user, err := s.users.BySetupToken(ctx, req.SetupToken)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired setup token")
	}
	if user.WalletSetupTokenExpiresAt == nil || time.Now().After(*user.WalletSetupTokenExpiresAt) {
		return nil, errors.NewUnauthorizedError("Setup token expired. Please signup again.")
	}

	return &models.ValidateSetupResponse{
		Valid:     true,
		Username:  user.Username,
		Challenge: uuid.New().String(),
	}, nil
}

// CompleteSetup verifies the signed challenge and links the wallet. The
// setup token is burned on success.
func (s *WalletService) CompleteSetup(ctx context.Context, req models.CompleteSetupRequest) (*models.CompleteSetupResponse, error) {
	if err := verifySignature(req.WalletAddress, req.Signature, ConnectMessage(req.Challenge)); err != nil {
		return nil, err
	}

	user, err := s.users.BySetupToken(ctx, req.SetupToken)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired setup token")
	}
	if user.WalletSetupTokenExpiresAt == nil || time.Now().After(*user.WalletSetupTokenExpiresAt) {
		return nil, errors.NewUnauthorizedError("Setup token expired. Please signup again.")
	}

	if other, err := s.users.ByWallet(ctx, req.WalletAddress); err != nil {
		return nil, err
	} else if other != nil && other.ID != user.ID {
		return nil, errors.NewConflictError("wallet",
			fmt.Sprintf("This wallet is already connected to another account: %s", other.Username))
	}

	if err := s.users.LinkWallet(ctx, user.ID, req.WalletAddress); err != nil {
		return nil, err
	}

	logger.Info().
		Int64("user_id", user.ID).
		Str("wallet", req.WalletAddress).
		Msg("Wallet linked")

	return &models.CompleteSetupResponse{
		Success: true,
		Message: fmt.Sprintf("Wallet successfully connected to %s", user.Username),
	}, nil
}

// LoginChallenge issues a challenge for wallet login.
func (s *WalletService) LoginChallenge(ctx context.Context, req models.WalletChallengeRequest) (*models.WalletChallengeResponse, error) {
	if _, err := solana.PublicKeyFromBase58(req.WalletAddress); err != nil {
		return nil, errors.NewValidationError("wallet_address", "invalid public key")
	}
	return &models.WalletChallengeResponse{Challenge: uuid.New().String()}, nil
}

// Login authenticates a linked wallet by signed challenge.
func (s *WalletService) Login(ctx context.Context, req models.WalletLoginRequest) (*models.AuthResponse, error) {
	if err := verifySignature(req.WalletAddress, req.Signature, LoginMessage(req.Challenge)); err != nil {
		return nil, err
	}

	user, err := s.users.ByWallet(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("No account linked to this wallet")
	}
	if !user.IsActive {
		return nil, errors.NewForbiddenError("Account is deactivated")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to stamp last login")
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "issue token")
	}

	return &models.AuthResponse{
		User:    publicUser(user),
		Token:   token,
		Message: "Wallet login successful",
	}, nil
}
