package service

import (
	"sync"

	"xforce-terminal-backend/internal/features/chat/models"
)

// chatBuffer is the per-subscriber buffer for conversation and typing
// events. A stalled subscriber skips events rather than blocking posts.
const chatBuffer = 100

type convoChannels struct {
	mu     sync.Mutex
	events map[uint64]chan models.Event
	typing map[uint64]chan models.TypingEvent
	nextID uint64
}

// ConvoHub fans conversation events out per conversation id. Channels
// are created lazily on first touch.
type ConvoHub struct {
	mu     sync.Mutex
	convos map[string]*convoChannels
}

func NewConvoHub() *ConvoHub {
	return &ConvoHub{
		convos: make(map[string]*convoChannels),
	}
}

func (h *ConvoHub) channels(conversationID string) *convoChannels {
	h.mu.Lock()
	defer h.mu.Unlock()

	cc, ok := h.convos[conversationID]
	if !ok {
		cc = &convoChannels{
			events: make(map[uint64]chan models.Event),
			typing: make(map[uint64]chan models.TypingEvent),
		}
		h.convos[conversationID] = cc
	}
	return cc
}

// SubscribeEvents registers for conversation broadcasts.
func (h *ConvoHub) SubscribeEvents(conversationID string) (<-chan models.Event, func()) {
	cc := h.channels(conversationID)

	cc.mu.Lock()
	cc.nextID++
	id := cc.nextID
	ch := make(chan models.Event, chatBuffer)
	cc.events[id] = ch
	cc.mu.Unlock()

	cancel := func() {
		cc.mu.Lock()
		if existing, ok := cc.events[id]; ok {
			delete(cc.events, id)
			close(existing)
		}
		cc.mu.Unlock()
	}
	return ch, cancel
}

// SubscribeTyping registers for typing notifications.
func (h *ConvoHub) SubscribeTyping(conversationID string) (<-chan models.TypingEvent, func()) {
	cc := h.channels(conversationID)

	cc.mu.Lock()
	cc.nextID++
	id := cc.nextID
	ch := make(chan models.TypingEvent, chatBuffer)
	cc.typing[id] = ch
	cc.mu.Unlock()

	cancel := func() {
		cc.mu.Lock()
		if existing, ok := cc.typing[id]; ok {
			delete(cc.typing, id)
			close(existing)
		}
		cc.mu.Unlock()
	}
	return ch, cancel
}

// PublishEvent broadcasts without blocking; full subscribers miss it.
func (h *ConvoHub) PublishEvent(conversationID string, event models.Event) {
	cc := h.channels(conversationID)

	cc.mu.Lock()
	defer cc.mu.Unlock()
	for _, ch := range cc.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishTyping broadcasts a typing flag without blocking.
func (h *ConvoHub) PublishTyping(conversationID string, event models.TypingEvent) {
	cc := h.channels(conversationID)

	cc.mu.Lock()
	defer cc.mu.Unlock()
	for _, ch := range cc.typing {
		select {
		case ch <- event:
		default:
		}
	}
}
