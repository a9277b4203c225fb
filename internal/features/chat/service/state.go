package service

import (
	"time"

	"github.com/google/uuid"

	"xforce-terminal-backend/internal/features/chat/models"
)

// AddMessage appends a message, assigns it a fresh version and records
// its parents. Explicit parents win; otherwise the previous current
// version is the sole parent, and the first message has none.
func AddMessage(state *models.State, authorID int64, author, body string, parents []string) string {
	version := uuid.New().String()

	if len(parents) == 0 {
		if state.CurrentVersion != "" {
			parents = []string{state.CurrentVersion}
		} else {
			parents = []string{}
		}
	}

	state.Messages = append(state.Messages, models.Message{
		Version:   version,
		AuthorID:  authorID,
		Author:    author,
		Body:      body,
		Timestamp: time.Now().UTC(),
	})
	if state.VersionHistory == nil {
		state.VersionHistory = make(map[string][]string)
	}
	state.VersionHistory[version] = parents
	state.CurrentVersion = version
	return version
}

// Snapshot copies the message list for broadcasting.
func Snapshot(state *models.State) []models.Message {
	out := make([]models.Message, len(state.Messages))
	copy(out, state.Messages)
	return out
}
