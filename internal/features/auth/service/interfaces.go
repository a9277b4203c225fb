package service

import (
	"context"
	"time"

	"xforce-terminal-backend/internal/features/auth/models"
)

// UserRepository is the account store the auth services need. Lookups
// return (nil, nil) when no user matches.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash, setupToken string, setupExpiry time.Time) (*models.User, error)
	ByID(ctx context.Context, id int64) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	BySetupToken(ctx context.Context, token string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	LinkWallet(ctx context.Context, id int64, walletAddress string) error
	SetSetupToken(ctx context.Context, id int64, token string, expiry time.Time) error
}
