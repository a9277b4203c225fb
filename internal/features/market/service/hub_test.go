package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/market/models"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe()
	defer cancel1()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	require.Equal(t, 2, hub.Subscribers())

	update := models.PriceUpdate{Symbol: "SOL", Price: 101.5, Timestamp: time.Now().Unix()}
	hub.Publish(update)

	assert.Equal(t, update, <-ch1)
	assert.Equal(t, update, <-ch2)
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	cancel()

	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	// Second cancel is a no-op.
	cancel()
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Overfill the buffer. Publish must drop rather than block.
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(models.PriceUpdate{Symbol: "SOL", Price: float64(i)})
	}

	// The oldest updates were dropped, the newest survive.
	var last models.PriceUpdate
	for i := 0; i < subscriberBuffer; i++ {
		last = <-ch
	}
	assert.Equal(t, float64(subscriberBuffer+9), last.Price)
}
