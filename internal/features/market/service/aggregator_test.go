package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/market/models"
)

const baseTime = int64(1000000)

func TestAggregatorSingleUpdateFillsAllTimeframes(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("SOL", 100, baseTime)

	latest := agg.LatestAll("SOL")
	require.Len(t, latest, len(models.Timeframes))

	for tf, c := range latest {
		assert.Equal(t, (baseTime/tf.Seconds())*tf.Seconds(), c.Timestamp, "timeframe %s", tf)
		assert.Equal(t, 100.0, c.Open)
		assert.Equal(t, 100.0, c.High)
		assert.Equal(t, 100.0, c.Low)
		assert.Equal(t, 100.0, c.Close)
		assert.Equal(t, int64(1), c.PriceCount)
	}
}

func TestAggregatorDiscardsInvalidPrices(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("SOL", 100, baseTime)
	agg.Update("SOL", math.NaN(), baseTime+10)
	agg.Update("SOL", -5, baseTime+20)
	agg.Update("SOL", 0, baseTime+30)
	agg.Update("SOL", math.Inf(1), baseTime+40)
	agg.Update("SOL", 101, baseTime+50)

	c, ok := agg.Latest("SOL", models.Timeframe1m)
	require.True(t, ok)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 101.0, c.High)
	assert.Equal(t, 100.0, c.Low)
	assert.Equal(t, 101.0, c.Close)
	assert.Equal(t, int64(2), c.PriceCount)
	assert.Equal(t, uint64(4), agg.DroppedTicks())
}

func TestAggregatorInvalidFirstTickOpensNothing(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("SOL", math.NaN(), baseTime)

	_, ok := agg.Latest("SOL", models.Timeframe1m)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), agg.DroppedTicks())
}

func TestAggregatorOHLCWithinBucket(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("SOL", 100, baseTime)
	agg.Update("SOL", 101, baseTime+10)
	agg.Update("SOL", 99, baseTime+20)
	agg.Update("SOL", 102, baseTime+30)

	c, ok := agg.Latest("SOL", models.Timeframe1m)
	require.True(t, ok)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 102.0, c.High)
	assert.Equal(t, 99.0, c.Low)
	assert.Equal(t, 102.0, c.Close)
	assert.Equal(t, int64(4), c.PriceCount)
	assert.Equal(t, 4*102.0, c.Volume)
}

func TestAggregatorRollsIntoNewBucket(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("SOL", 100, baseTime)
	agg.Update("SOL", 110, baseTime+60)

	candles := agg.Candles("SOL", models.Timeframe1m, 100)
	require.Len(t, candles, 2)

	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 110.0, candles[1].Open)
	assert.Equal(t, int64(1), candles[1].PriceCount)
}

func TestAggregatorSymbolCaseInsensitive(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Update("sol", 100, baseTime)

	_, ok := agg.Latest("SOL", models.Timeframe1m)
	assert.True(t, ok)
	assert.Equal(t, []string{"SOL"}, agg.TrackedSymbols())
}

func TestAggregatorCandlesLimit(t *testing.T) {
	agg := NewCandleAggregator()
	for i := int64(0); i < 10; i++ {
		agg.Update("SOL", 100+float64(i), baseTime+i*60)
	}

	// 9 completed plus the in-progress one, limited to the 3 newest
	// completed.
	candles := agg.Candles("SOL", models.Timeframe1m, 3)
	require.Len(t, candles, 4)
	assert.Equal(t, 106.0, candles[0].Open)
	assert.Equal(t, 109.0, candles[3].Open)
}

func TestAggregatorCompletedHistoryCapped(t *testing.T) {
	agg := NewCandleAggregator()
	for i := int64(0); i < 600; i++ {
		agg.Update("SOL", 100, baseTime+i*60)
	}

	candles := agg.Candles("SOL", models.Timeframe1m, 10000)
	assert.Len(t, candles, maxCompletedCandles+1)
}

func TestAggregatorUnknownSymbol(t *testing.T) {
	agg := NewCandleAggregator()

	assert.Nil(t, agg.Candles("BTC", models.Timeframe1m, 10))
	_, ok := agg.Latest("BTC", models.Timeframe1m)
	assert.False(t, ok)
}
