package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/auth/models"
)

const (
	minUsernameLength = 3
	setupTokenTTL     = 30 * time.Minute
)

// AuthService implements signup and password login.
type AuthService struct {
	users  UserRepository
	tokens *TokenService
}

func NewAuthService(users UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func publicUser(u *models.User) models.PublicUser {
	return models.PublicUser{
		ID:            strconv.FormatInt(u.ID, 10),
		Username:      u.Username,
		Email:         u.Email,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
		WalletAddress: u.WalletAddress,
	}
}

// Signup registers a new account and hands back a session token plus a
// one-shot wallet setup token.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if len(username) < minUsernameLength {
		return nil, errors.NewValidationError("username", "must be at least 3 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.NewValidationError("email", "must be a valid email address")
	}

	if existing, err := s.users.ByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.NewConflictError("user", "An account with this email already exists")
	}
	if existing, err := s.users.ByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.NewConflictError("user", "This username is already taken")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	setupToken := uuid.New().String()
	user, err := s.users.Create(ctx, username, email, hash, setupToken, time.Now().Add(setupTokenTTL))
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "issue token")
	}

	logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User signed up")

	return &models.AuthResponse{
		User:                publicUser(user),
		Token:               token,
		Message:             "Account created. Connect your wallet to start trading.",
		WalletSetupRequired: true,
		WalletSetupToken:    setupToken,
	}, nil
}

// Login authenticates by email or username.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	identifier := strings.TrimSpace(req.EmailOrUsername)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.ByEmail(ctx, identifier)
	} else {
		user, err = s.users.ByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("Invalid credentials")
	}

	if !user.IsActive {
		return nil, errors.NewForbiddenError("Account is deactivated")
	}

	ok, err := VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, errors.NewUnauthorizedError("Invalid credentials")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to stamp last login")
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "issue token")
	}

	resp := &models.AuthResponse{
		User:    publicUser(user),
		Token:   token,
		Message: "Login successful",
	}
	if user.WalletAddress == nil {
		resp.WalletSetupRequired = true
	}
	return resp, nil
}

// Me returns the authenticated profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewUserNotFoundError(userID)
	}
	pu := publicUser(user)
	return &pu, nil
}
