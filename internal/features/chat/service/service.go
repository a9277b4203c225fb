package service

import (
	"context"
	"sync"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/chat/models"
	"xforce-terminal-backend/internal/features/chat/repository/sqlite"
)

const maxMessageLength = 10000

// FriendshipChecker answers whether two users may talk.
type FriendshipChecker interface {
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// ChatService owns conversation state, persistence and fan-out.
type ChatService struct {
	repo    *sqlite.MessageRepository
	hub     *ConvoHub
	friends FriendshipChecker

	mu     sync.Mutex
	states map[string]*models.State

	notifyMu        sync.Mutex
	assistantNotify func(conversationID string)
}

// OnAssistantConversation registers a callback fired whenever a human
// posts into a conversation with the assistant.
func (s *ChatService) OnAssistantConversation(fn func(conversationID string)) {
	s.notifyMu.Lock()
	s.assistantNotify = fn
	s.notifyMu.Unlock()
}

func NewChatService(repo *sqlite.MessageRepository, hub *ConvoHub, friends FriendshipChecker) *ChatService {
	return &ChatService{
		repo:    repo,
		hub:     hub,
		friends: friends,
		states:  make(map[string]*models.State),
	}
}

// state returns the in-memory conversation state, loading it from the
// store on first touch.
func (s *ChatService) state(ctx context.Context, conversationID string) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.states[conversationID]; ok {
		return st, nil
	}

	st, err := s.repo.LoadState(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = models.NewState()
	}
	s.states[conversationID] = st
	return st, nil
}

func (s *ChatService) authorize(ctx context.Context, conversationID string, userID int64) error {
	a, b, err := models.ParseConversationID(conversationID)
	if err != nil {
		return errors.NewValidationError("conversation_id", err.Error())
	}
	if userID != a && userID != b {
		return errors.NewForbiddenError("Not a participant of this conversation")
	}

	// The assistant talks to everyone; humans need an accepted
	// friendship.
	if a == models.BotUserID {
		return nil
	}
	ok, err := s.friends.AreFriends(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewForbiddenError("Conversation requires an accepted friendship")
	}
	return nil
}

// Post validates, appends, persists and broadcasts a message. Returns
// the new version.
func (s *ChatService) Post(ctx context.Context, userID int64, username, conversationID, body string, parents []string) (string, error) {
	if err := s.authorize(ctx, conversationID, userID); err != nil {
		return "", err
	}
	if body == "" {
		return "", errors.NewValidationError("body", "message must not be empty")
	}
	if len(body) > maxMessageLength {
		return "", errors.NewValidationError("body", "message exceeds 10000 characters")
	}

	st, err := s.state(ctx, conversationID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	version := AddMessage(st, userID, username, body, parents)
	msg := st.Messages[len(st.Messages)-1]
	msgParents := st.VersionHistory[version]
	snapshot := Snapshot(st)
	s.mu.Unlock()

	if err := s.repo.Append(ctx, conversationID, msg, msgParents); err != nil {
		return "", err
	}
	if err := s.repo.SaveState(ctx, conversationID, st); err != nil {
		return "", err
	}

	s.hub.PublishEvent(conversationID, models.Event{
		Version:  version,
		Messages: snapshot,
	})

	if models.IsAssistantConversation(conversationID) && userID != models.BotUserID {
		s.notifyMu.Lock()
		notify := s.assistantNotify
		s.notifyMu.Unlock()
		if notify != nil {
			notify(conversationID)
		}
	}

	logger.Debug().
		Str("conversation", conversationID).
		Str("version", version).
		Str("author", username).
		Msg("Message posted")

	return version, nil
}

// SnapshotEvent returns the current state as an event for the initial
// subscription frame.
func (s *ChatService) SnapshotEvent(ctx context.Context, conversationID string) (models.Event, error) {
	st, err := s.state(ctx, conversationID)
	if err != nil {
		return models.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Event{
		Version:  st.CurrentVersion,
		Messages: Snapshot(st),
	}, nil
}

// Typing broadcasts a typing flag after a participant check.
func (s *ChatService) Typing(ctx context.Context, userID int64, username, conversationID string, isTyping bool) error {
	if err := s.authorize(ctx, conversationID, userID); err != nil {
		return err
	}
	s.hub.PublishTyping(conversationID, models.TypingEvent{
		UserID:   userID,
		Username: username,
		IsTyping: isTyping,
	})
	return nil
}

// SubscribeEvents exposes the hub for delivery and the assistant bot.
func (s *ChatService) SubscribeEvents(conversationID string) (<-chan models.Event, func()) {
	return s.hub.SubscribeEvents(conversationID)
}

// SubscribeTyping exposes typing notifications.
func (s *ChatService) SubscribeTyping(conversationID string) (<-chan models.TypingEvent, func()) {
	return s.hub.SubscribeTyping(conversationID)
}
