package models

import "time"

// User is the terminal account row.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	IsActive     bool       `json:"is_active"`

	WalletAddress     *string    `json:"wallet_address,omitempty"`
	WalletConnectedAt *time.Time `json:"wallet_connected_at,omitempty"`

	WalletSetupToken          *string    `json:"-"`
	WalletSetupTokenExpiresAt *time.Time `json:"-"`
}

// PublicUser is the profile shape returned to clients.
type PublicUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	CreatedAt     string  `json:"created_at"`
	WalletAddress *string `json:"wallet_address"`
}

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// AuthResponse is returned from signup, login and wallet login.
type AuthResponse struct {
	User                PublicUser `json:"user"`
	Token               string     `json:"token"`
	Message             string     `json:"message"`
	WalletSetupRequired bool       `json:"wallet_setup_required"`
	WalletSetupToken    string     `json:"wallet_setup_token,omitempty"`
}

type ValidateSetupRequest struct {
	SetupToken string `json:"setup_token" binding:"required"`
}

type ValidateSetupResponse struct {
	Valid     bool   `json:"valid"`
	Username  string `json:"username"`
	Challenge string `json:"challenge"`
}

type CompleteSetupRequest struct {
	SetupToken    string `json:"setup_token" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	Challenge     string `json:"challenge" binding:"required"`
}

type CompleteSetupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type WalletChallengeRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

type WalletChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type WalletLoginRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	Challenge     string `json:"challenge" binding:"required"`
}
