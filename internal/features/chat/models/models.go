package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BotUserID is the reserved id of the assistant account.
const BotUserID int64 = 0

// Message is one conversation entry. Timestamp serializes as RFC 3339.
type Message struct {
	Version   string    `json:"version"`
	AuthorID  int64     `json:"author_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is a conversation broadcast: the full message list at a version.
type Event struct {
	Version  string    `json:"version"`
	Messages []Message `json:"messages"`
}

// TypingEvent signals a participant's typing state.
type TypingEvent struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// State is the causally versioned conversation log. VersionHistory maps
// each version to its parent versions.
type State struct {
	Messages       []Message           `json:"messages"`
	VersionHistory map[string][]string `json:"version_history"`
	CurrentVersion string              `json:"current_version"`
}

func NewState() *State {
	return &State{
		VersionHistory: make(map[string][]string),
	}
}

// ConversationID builds the canonical "<min>:<max>" id for two users.
func ConversationID(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ParseConversationID splits a canonical conversation id.
func ParseConversationID(id string) (int64, int64, error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed conversation id %q", id)
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed conversation id %q", id)
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed conversation id %q", id)
	}
	if a > b {
		return 0, 0, fmt.Errorf("conversation id %q is not canonical", id)
	}
	return a, b, nil
}

// IsAssistantConversation reports whether the id names a conversation
// with the assistant bot.
func IsAssistantConversation(id string) bool {
	a, _, err := ParseConversationID(id)
	return err == nil && a == BotUserID
}

// IsParticipant reports whether userID belongs to the conversation.
func IsParticipant(id string, userID int64) bool {
	a, b, err := ParseConversationID(id)
	if err != nil {
		return false
	}
	return userID == a || userID == b
}
