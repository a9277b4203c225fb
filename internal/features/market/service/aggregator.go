package service

import (
	"math"
	"sort"
	"strings"
	"sync"

	"xforce-terminal-backend/internal/features/market/models"
)

// maxCompletedCandles caps the per-timeframe history kept in memory.
const maxCompletedCandles = 500

type symbolCandles struct {
	current   map[models.Timeframe]*models.Candle
	completed map[models.Timeframe][]models.Candle
}

func newSymbolCandles() *symbolCandles {
	return &symbolCandles{
		current:   make(map[models.Timeframe]*models.Candle),
		completed: make(map[models.Timeframe][]models.Candle),
	}
}

// CandleAggregator folds price ticks into OHLC candles across all
// timeframes. Safe for concurrent use.
type CandleAggregator struct {
	mu      sync.RWMutex
	symbols map[string]*symbolCandles
	dropped uint64
}

func NewCandleAggregator() *CandleAggregator {
	return &CandleAggregator{
		symbols: make(map[string]*symbolCandles),
	}
}

// Update folds one tick into every timeframe bucket for the symbol.
// Zero, negative or non-finite prices are counted and discarded.
func (a *CandleAggregator) Update(symbol string, price float64, timestamp int64) {
	sym := strings.ToUpper(symbol)

	a.mu.Lock()
	defer a.mu.Unlock()

	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		a.dropped++
		return
	}

	sc, ok := a.symbols[sym]
	if !ok {
		sc = newSymbolCandles()
		a.symbols[sym] = sc
	}

	for _, tf := range models.Timeframes {
		bucket := (timestamp / tf.Seconds()) * tf.Seconds()

		cur := sc.current[tf]
		if cur == nil || cur.Timestamp != bucket {
			if cur != nil {
				done := sc.completed[tf]
				done = append(done, *cur)
				if len(done) > maxCompletedCandles {
					done = done[len(done)-maxCompletedCandles:]
				}
				sc.completed[tf] = done
			}
			sc.current[tf] = &models.Candle{
				Timestamp:  bucket,
				Open:       price,
				High:       price,
				Low:        price,
				Close:      price,
				Volume:     price,
				PriceCount: 1,
			}
			continue
		}

		cur.Close = price
		if price > cur.High {
			cur.High = price
		}
		if price < cur.Low {
			cur.Low = price
		}
		cur.PriceCount++
		cur.Volume = float64(cur.PriceCount) * price
	}
}

// Candles returns up to limit completed candles in chronological order
// with the in-progress candle appended last. Unknown symbols yield nil.
func (a *CandleAggregator) Candles(symbol string, tf models.Timeframe, limit int) []models.Candle {
	sym := strings.ToUpper(symbol)

	a.mu.RLock()
	defer a.mu.RUnlock()

	sc, ok := a.symbols[sym]
	if !ok {
		return nil
	}

	completed := sc.completed[tf]
	start := 0
	if limit >= 0 && len(completed) > limit {
		start = len(completed) - limit
	}

	out := make([]models.Candle, 0, len(completed)-start+1)
	out = append(out, completed[start:]...)
	if cur := sc.current[tf]; cur != nil {
		out = append(out, *cur)
	}
	return out
}

// Latest returns the freshest candle for a timeframe, preferring the
// in-progress one.
func (a *CandleAggregator) Latest(symbol string, tf models.Timeframe) (models.Candle, bool) {
	sym := strings.ToUpper(symbol)

	a.mu.RLock()
	defer a.mu.RUnlock()

	sc, ok := a.symbols[sym]
	if !ok {
		return models.Candle{}, false
	}
	if cur := sc.current[tf]; cur != nil {
		return *cur, true
	}
	if done := sc.completed[tf]; len(done) > 0 {
		return done[len(done)-1], true
	}
	return models.Candle{}, false
}

// LatestAll returns the freshest candle per timeframe.
func (a *CandleAggregator) LatestAll(symbol string) map[models.Timeframe]models.Candle {
	out := make(map[models.Timeframe]models.Candle, len(models.Timeframes))
	for _, tf := range models.Timeframes {
		if c, ok := a.Latest(symbol, tf); ok {
			out[tf] = c
		}
	}
	return out
}

// TrackedSymbols returns every symbol with candle state, sorted.
func (a *CandleAggregator) TrackedSymbols() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, 0, len(a.symbols))
	for sym := range a.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// DroppedTicks reports how many invalid prices were discarded.
func (a *CandleAggregator) DroppedTicks() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropped
}
