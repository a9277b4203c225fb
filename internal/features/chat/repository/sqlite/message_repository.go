package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/chat/models"
)

// MessageRepository persists conversation logs and their version state.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// EnsureBotUser inserts the reserved assistant account if missing.
func (r *MessageRepository) EnsureBotUser(ctx context.Context, username, email string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, username, email, password_hash, is_active)
		VALUES (?, ?, ?, '', 1)`,
		models.BotUserID, username, email,
	)
	if err != nil {
		return errors.NewDatabaseError("ensure bot user", err)
	}
	return nil
}

// Append stores one message with its parent versions.
func (r *MessageRepository) Append(ctx context.Context, conversationID string, msg models.Message, parents []string) error {
	parentsJSON, err := json.Marshal(parents)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, version, author_id, author, body, parents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conversationID, msg.Version, msg.AuthorID, msg.Author, msg.Body, string(parentsJSON), msg.Timestamp,
	)
	if err != nil {
		return errors.NewDatabaseError("append message", err)
	}
	return nil
}

// SaveState upserts the conversation's current version and history.
func (r *MessageRepository) SaveState(ctx context.Context, conversationID string, state *models.State) error {
	historyJSON, err := json.Marshal(state.VersionHistory)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversation_state (conversation_id, current_version, version_history)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_id)
		DO UPDATE SET current_version = excluded.current_version,
			version_history = excluded.version_history,
			updated_at = CURRENT_TIMESTAMP`,
		conversationID, state.CurrentVersion, string(historyJSON),
	)
	if err != nil {
		return errors.NewDatabaseError("save conversation state", err)
	}
	return nil
}

// LoadState rebuilds the conversation state from storage. Returns nil
// when the conversation has no history.
func (r *MessageRepository) LoadState(ctx context.Context, conversationID string) (*models.State, error) {
	state := models.NewState()

	row := r.db.QueryRowContext(ctx, `
		SELECT current_version, version_history FROM conversation_state WHERE conversation_id = ?`,
		conversationID,
	)
	var historyJSON string
	err := row.Scan(&state.CurrentVersion, &historyJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("load conversation state", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &state.VersionHistory); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT version, author_id, author, body, created_at FROM messages WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("load messages", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.Version, &msg.AuthorID, &msg.Author, &msg.Body, &msg.Timestamp); err != nil {
			return nil, errors.NewDatabaseError("scan message", err)
		}
		state.Messages = append(state.Messages, msg)
	}
	return state, rows.Err()
}
