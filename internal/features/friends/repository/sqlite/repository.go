package sqlite

import (
	"context"
	"database/sql"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/friends/models"
)

// FriendshipRepository persists friendship edges.
type FriendshipRepository struct {
	db *sql.DB
}

func NewFriendshipRepository(db *sql.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Get returns the edge between two users in either direction.
func (r *FriendshipRepository) Get(ctx context.Context, a, b int64) (*models.Friendship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT requester_id, addressee_id, status, created_at, updated_at
		FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		a, b, b, a,
	)
	var f models.Friendship
	err := row.Scan(&f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get friendship", err)
	}
	return &f, nil
}

// Upsert writes the edge requester→addressee with the given status.
func (r *FriendshipRepository) Upsert(ctx context.Context, requesterID, addresseeID int64, status string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES (?, ?, ?)
		ON CONFLICT (requester_id, addressee_id)
		DO UPDATE SET status = excluded.status, updated_at = CURRENT_TIMESTAMP`,
		requesterID, addresseeID, status,
	)
	if err != nil {
		return errors.NewDatabaseError("upsert friendship", err)
	}
	return nil
}

// UpdateStatus transitions a pending request sent to addressee. Returns
// false when no such pending request exists.
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, requesterID, addresseeID int64, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE friendships SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE requester_id = ? AND addressee_id = ? AND status = ?`,
		status, requesterID, addresseeID, models.StatusPending,
	)
	if err != nil {
		return false, errors.NewDatabaseError("update friendship", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewDatabaseError("update friendship", err)
	}
	return n > 0, nil
}

func (r *FriendshipRepository) listEntries(ctx context.Context, query string, args ...interface{}) ([]models.FriendEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("list friendships", err)
	}
	defer rows.Close()

	entries := []models.FriendEntry{}
	for rows.Next() {
		var e models.FriendEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Wallet); err != nil {
			return nil, errors.NewDatabaseError("scan friendship", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListAccepted returns accepted friends of the user, either direction.
func (r *FriendshipRepository) ListAccepted(ctx context.Context, userID int64) ([]models.FriendEntry, error) {
	return r.listEntries(ctx, `
		SELECT u.id, u.username, u.wallet_address
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = ? OR f.addressee_id = ?) AND f.status = 'accepted'
		ORDER BY u.username`,
		userID, userID, userID,
	)
}

// ListIncoming returns pending requests sent to the user.
func (r *FriendshipRepository) ListIncoming(ctx context.Context, userID int64) ([]models.FriendEntry, error) {
	return r.listEntries(ctx, `
		SELECT u.id, u.username, u.wallet_address
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.addressee_id = ? AND f.status = 'pending'
		ORDER BY f.created_at`,
		userID,
	)
}

// ListOutgoing returns pending requests the user sent.
func (r *FriendshipRepository) ListOutgoing(ctx context.Context, userID int64) ([]models.FriendEntry, error) {
	return r.listEntries(ctx, `
		SELECT u.id, u.username, u.wallet_address
		FROM friendships f
		JOIN users u ON u.id = f.addressee_id
		WHERE f.requester_id = ? AND f.status = 'pending'
		ORDER BY f.created_at`,
		userID,
	)
}
