package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/chat/models"
	chatservice "xforce-terminal-backend/internal/features/chat/service"
)

const (
	// BotName is the author string the assistant posts under.
	BotName = "DeepSeek AI"

	maxResponseLength = 1000
	responseDelay     = 1500 * time.Millisecond
)

const defaultSystemPrompt = "You are a helpful trading assistant inside a crypto trading terminal. " +
	"Users ask about markets, tokens, swaps and the Solana ecosystem. " +
	"Answer concisely and never give financial advice presented as certainty."

// Config drives the assistant bot behavior.
type Config struct {
	Name          string
	SystemPrompt  string
	ContextWindow int
	MaxTokens     int
	Temperature   float64
	RespondToAll  bool
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = BotName
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaultSystemPrompt
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = 20
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.8
	}
}

// Bot watches assistant conversations and replies to messages that
// address it.
type Bot struct {
	cfg  Config
	llm  LLMClient
	chat *chatservice.ChatService

	mu       sync.Mutex
	watching map[string]struct{}
}

func NewBot(cfg Config, llm LLMClient, chat *chatservice.ChatService) *Bot {
	cfg.applyDefaults()
	return &Bot{
		cfg:      cfg,
		llm:      llm,
		chat:     chat,
		watching: make(map[string]struct{}),
	}
}

// Run registers the bot with the chat service and blocks until the
// context ends. Conversation loops are spawned on demand.
func (b *Bot) Run(ctx context.Context) {
	b.chat.OnAssistantConversation(func(conversationID string) {
		b.Watch(ctx, conversationID)
	})

	logger.Info().
		Str("bot", b.cfg.Name).
		Bool("respond_to_all", b.cfg.RespondToAll).
		Msg("Assistant bot started")

	<-ctx.Done()
}

// Watch starts a subscription loop for one conversation. Repeated
// calls for the same conversation are no-ops.
func (b *Bot) Watch(ctx context.Context, conversationID string) {
	b.mu.Lock()
	if _, ok := b.watching[conversationID]; ok {
		b.mu.Unlock()
		return
	}
	b.watching[conversationID] = struct{}{}
	b.mu.Unlock()

	go b.watchLoop(ctx, conversationID)
}

func (b *Bot) watchLoop(ctx context.Context, conversationID string) {
	events, cancel := b.chat.SubscribeEvents(conversationID)
	defer cancel()
	defer func() {
		b.mu.Lock()
		delete(b.watching, conversationID)
		b.mu.Unlock()
	}()

	logger.Debug().Str("conversation", conversationID).Msg("Assistant watching conversation")

	var lastSeen string

	// The message that started the watch was published before the
	// subscription existed, so replay the current state first.
	if snap, err := b.chat.SnapshotEvent(ctx, conversationID); err == nil && snap.Version != "" {
		lastSeen = snap.Version
		b.handleEvent(ctx, conversationID, snap)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Version == "" || ev.Version == lastSeen {
				continue
			}
			lastSeen = ev.Version
			b.handleEvent(ctx, conversationID, ev)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, conversationID string, ev models.Event) {
	if len(ev.Messages) == 0 {
		return
	}
	last := ev.Messages[len(ev.Messages)-1]
	if last.AuthorID == models.BotUserID {
		return
	}
	if !b.cfg.RespondToAll && !b.isAddressed(last.Body) {
		return
	}

	// Pause so the reply does not land before the UI renders the
	// user's own message.
	select {
	case <-ctx.Done():
		return
	case <-time.After(responseDelay):
	}

	reply, err := b.llm.Complete(ctx, b.buildContext(ev.Messages), b.cfg.MaxTokens, b.cfg.Temperature)
	if err != nil {
		logger.Error().Err(err).
			Str("conversation", conversationID).
			Msg("Assistant completion failed")
		return
	}

	reply = CleanResponse(reply)
	if reply == "" {
		return
	}

	if _, err := b.chat.Post(ctx, models.BotUserID, b.cfg.Name, conversationID, reply, []string{ev.Version}); err != nil {
		logger.Error().Err(err).
			Str("conversation", conversationID).
			Msg("Assistant failed to post reply")
	}
}

// isAddressed reports whether a message is directed at the bot.
func (b *Bot) isAddressed(body string) bool {
	lower := strings.ToLower(body)
	for _, needle := range []string{strings.ToLower(b.cfg.Name), "@bot", "@ai", "@deepseek"} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// buildContext turns the newest messages into provider turns, oldest
// first, prefixed with the system prompt.
func (b *Bot) buildContext(messages []models.Message) []ChatMessage {
	start := 0
	if len(messages) > b.cfg.ContextWindow {
		start = len(messages) - b.cfg.ContextWindow
	}

	out := make([]ChatMessage, 0, len(messages)-start+1)
	out = append(out, ChatMessage{Role: RoleSystem, Content: b.cfg.SystemPrompt})
	for _, m := range messages[start:] {
		role := RoleUser
		if m.AuthorID == models.BotUserID {
			role = RoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: m.Body})
	}
	return out
}

var boilerplatePrefixes = []string{
	"As an AI assistant, ",
	"As an AI language model, ",
	"As an AI, ",
}

// CleanResponse strips provider boilerplate and bounds the reply
// length, cutting at a sentence or word boundary when possible.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}

	if len(text) <= maxResponseLength {
		return text
	}

	cut := text[:maxResponseLength]
	if idx := strings.LastIndex(cut, "."); idx > 0 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return cut[:idx] + "..."
	}
	return cut + "..."
}
