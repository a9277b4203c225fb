package workers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"xforce-terminal-backend/internal/features/market/service"
	"xforce-terminal-backend/internal/platform/jupiter"
)

func newTestStream(defaults []string) *PriceStream {
	return NewPriceStream(jupiter.NewClient(), service.NewCandleAggregator(), service.NewHub(), nil, 500, defaults)
}

func TestTrackedSymbolsNormalized(t *testing.T) {
	stream := newTestStream([]string{"sol", " USDC ", "SOL", ""})

	assert.Equal(t, []string{"SOL", "USDC"}, stream.TrackedSymbols())
}

func TestAddAndRemoveTokens(t *testing.T) {
	stream := newTestStream([]string{"SOL"})

	stream.AddTokens([]string{"btc", "ETH"})
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, stream.TrackedSymbols())

	stream.RemoveTokens([]string{"sol", "DOGE"})
	assert.Equal(t, []string{"BTC", "ETH"}, stream.TrackedSymbols())
}

func TestChunkSymbols(t *testing.T) {
	var symbols []string
	for i := 0; i < 250; i++ {
		symbols = append(symbols, fmt.Sprintf("T%d", i))
	}

	chunks := chunkSymbols(symbols, 100)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)

	assert.Nil(t, chunkSymbols(nil, 100))
	assert.Len(t, chunkSymbols(symbols[:100], 100), 1)
}
