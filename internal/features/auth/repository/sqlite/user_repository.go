package sqlite

import (
	"context"
	"database/sql"
	"time"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/auth/models"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at,
	last_login, is_active, wallet_address, wallet_connected_at,
	wallet_setup_token, wallet_setup_token_expires_at`

// UserRepository persists accounts in sqlite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&u.LastLogin, &u.IsActive, &u.WalletAddress, &u.WalletConnectedAt,
		&u.WalletSetupToken, &u.WalletSetupTokenExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account and returns it with the assigned id.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash, setupToken string, setupExpiry time.Time) (*models.User, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, wallet_setup_token, wallet_setup_token_expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, setupToken, setupExpiry,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewDatabaseError("create user", err)
	}
	return r.ByID(ctx, id)
}

func (r *UserRepository) byQuery(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("query user", err)
	}
	return u, nil
}

// Lookups return (nil, nil) when no row matches.

func (r *UserRepository) ByID(ctx context.Context, id int64) (*models.User, error) {
	return r.byQuery(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.byQuery(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.byQuery(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) ByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	return r.byQuery(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = ?`, walletAddress)
}

func (r *UserRepository) BySetupToken(ctx context.Context, token string) (*models.User, error) {
	return r.byQuery(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_setup_token = ?`, token)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return errors.NewDatabaseError("update last login", err)
	}
	return nil
}

// LinkWallet attaches a wallet and burns the setup token in one write.
func (r *UserRepository) LinkWallet(ctx context.Context, id int64, walletAddress string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			wallet_address = ?,
			wallet_connected_at = CURRENT_TIMESTAMP,
			wallet_setup_token = NULL,
			wallet_setup_token_expires_at = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		walletAddress, id,
	)
	if err != nil {
		return errors.NewDatabaseError("link wallet", err)
	}
	return nil
}

func (r *UserRepository) SetSetupToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			wallet_setup_token = ?,
			wallet_setup_token_expires_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		token, expiry, id,
	)
	if err != nil {
		return errors.NewDatabaseError("set setup token", err)
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
	if err != nil {
		return errors.NewDatabaseError("set active", err)
	}
	return nil
}

// Search finds active users by username prefix, excluding the caller.
func (r *UserRepository) Search(ctx context.Context, query string, excludeID int64, limit int) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username LIKE ? AND id != ? AND is_active = 1
		ORDER BY username LIMIT ?`,
		query+"%", excludeID, limit,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("search users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.NewDatabaseError("scan user", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
