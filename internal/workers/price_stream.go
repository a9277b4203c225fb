package workers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"xforce-terminal-backend/internal/common/logger"
	"xforce-terminal-backend/internal/features/market/models"
	"xforce-terminal-backend/internal/features/market/service"
	"xforce-terminal-backend/internal/platform/jupiter"
)

const (
	// priceBatchSize caps symbols per upstream price request.
	priceBatchSize = 100

	tokenListRetryInterval = 30 * time.Second
	interChunkDelay        = 100 * time.Millisecond
)

// PriceCache is the optional Redis-backed latest-price sink.
type PriceCache interface {
	Set(ctx context.Context, update models.PriceUpdate) error
}

// PriceStream polls the aggregator for tracked token prices and feeds
// the candle aggregator and the fan-out hub.
type PriceStream struct {
	client     *jupiter.Client
	aggregator *service.CandleAggregator
	hub        *service.Hub
	cache      PriceCache // nil when Redis is not configured

	interval time.Duration

	mu      sync.RWMutex
	tracked map[string]struct{}
}

func NewPriceStream(client *jupiter.Client, aggregator *service.CandleAggregator, hub *service.Hub, cache PriceCache, intervalMs int, defaultTokens []string) *PriceStream {
	s := &PriceStream{
		client:     client,
		aggregator: aggregator,
		hub:        hub,
		cache:      cache,
		interval:   time.Duration(intervalMs) * time.Millisecond,
		tracked:    make(map[string]struct{}),
	}
	s.AddTokens(defaultTokens)
	return s
}

// Start runs the stream until ctx is cancelled.
func (s *PriceStream) Start(ctx context.Context) {
	if !s.loadTokenDirectory(ctx) {
		go s.retryTokenDirectory(ctx)
	}

	logger.Info().
		Dur("interval", s.interval).
		Int("tracked", len(s.TrackedSymbols())).
		Msg("Starting price stream")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping price stream")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// loadTokenDirectory tries three times with growing backoff.
func (s *PriceStream) loadTokenDirectory(ctx context.Context) bool {
	for attempt := 1; attempt <= 3; attempt++ {
		if err := s.client.RefreshTokens(ctx); err == nil {
			return true
		} else {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("Token directory load failed")
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return false
}

// retryTokenDirectory keeps trying in the background so the stream can
// start with hardcoded mints only.
func (s *PriceStream) retryTokenDirectory(ctx context.Context) {
	ticker := time.NewTicker(tokenListRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.RefreshTokens(ctx); err == nil {
				logger.Info().Msg("Token directory loaded after retry")
				return
			}
		}
	}
}

func (s *PriceStream) tick(ctx context.Context) {
	symbols := s.TrackedSymbols()
	if len(symbols) == 0 {
		return
	}

	chunks := chunkSymbols(symbols, priceBatchSize)
	for i, chunk := range chunks {
		prices, err := s.client.Prices(ctx, chunk)
		if err != nil {
			logger.Warn().Err(err).Strs("symbols", chunk).Msg("Price chunk fetch failed")
			continue
		}

		now := time.Now().Unix()
		for _, sym := range chunk {
			price, ok := prices[sym]
			if !ok {
				continue
			}
			mint, _ := s.client.ResolveMint(sym)

			update := models.PriceUpdate{
				Symbol:    sym,
				Mint:      mint,
				Price:     price,
				Source:    "jupiter",
				Timestamp: now,
			}

			// Candle folding must not delay the publish path.
			go s.aggregator.Update(sym, price, now)

			s.hub.Publish(update)

			if s.cache != nil {
				if err := s.cache.Set(ctx, update); err != nil {
					logger.Debug().Err(err).Str("symbol", sym).Msg("Price cache write failed")
				}
			}
		}

		if len(chunks) > 1 && i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interChunkDelay):
			}
		}
	}
}

// AddTokens starts tracking symbols. Input is upper-cased and deduped.
func (s *PriceStream) AddTokens(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		s.tracked[sym] = struct{}{}
	}
}

// RemoveTokens stops tracking symbols. Unknown symbols are ignored.
func (s *PriceStream) RemoveTokens(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		delete(s.tracked, strings.ToUpper(strings.TrimSpace(sym)))
	}
}

// TrackedSymbols returns a sorted snapshot of tracked symbols.
func (s *PriceStream) TrackedSymbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tracked))
	for sym := range s.tracked {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func chunkSymbols(symbols []string, size int) [][]string {
	var chunks [][]string
	for len(symbols) > size {
		chunks = append(chunks, symbols[:size])
		symbols = symbols[size:]
	}
	if len(symbols) > 0 {
		chunks = append(chunks, symbols)
	}
	return chunks
}
