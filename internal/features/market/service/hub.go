package service

import (
	"sync"
	"sync/atomic"

	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/market/models"
)

// subscriberBuffer is the per-subscriber channel capacity. A full buffer
// drops the oldest update so Publish never blocks the stream.
const subscriberBuffer = 1024

type subscriber struct {
	ch      chan models.PriceUpdate
	dropped atomic.Uint64
}

// Hub fans price updates out to subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]*subscriber),
	}
}

// Subscribe registers a new subscriber. The cancel func must be called
// when the consumer goes away.
func (h *Hub) Subscribe() (<-chan models.PriceUpdate, func()) {
	sub := &subscriber{ch: make(chan models.PriceUpdate, subscriberBuffer)}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers an update to every subscriber without blocking. Slow
// subscribers lose their oldest buffered update.
func (h *Hub) Publish(update models.PriceUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- update:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- update:
			default:
			}
			if n := sub.dropped.Add(1); n%1000 == 1 {
				logger.Warn().Uint64("dropped", n).Msg("Slow price subscriber dropping updates")
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
