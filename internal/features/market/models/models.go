package models

import (
	"fmt"
	"strings"
)

// Timeframe is a candle bucket width.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Timeframes lists every supported timeframe, narrowest first.
var Timeframes = []Timeframe{
	Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d,
}

var timeframeSeconds = map[Timeframe]int64{
	Timeframe1m:  60,
	Timeframe5m:  300,
	Timeframe15m: 900,
	Timeframe1h:  3600,
	Timeframe4h:  14400,
	Timeframe1d:  86400,
}

// Seconds returns the bucket width.
func (t Timeframe) Seconds() int64 {
	return timeframeSeconds[t]
}

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(s))
	if _, ok := timeframeSeconds[tf]; !ok {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// Candle is one OHLC bucket. Volume is a trade-count proxy, not real
// traded volume.
type Candle struct {
	Timestamp  int64   `json:"timestamp"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	PriceCount int64   `json:"priceCount"`
}

// PriceUpdate is one tick published to the hub and pushed to clients.
type PriceUpdate struct {
	Symbol    string  `json:"symbol"`
	Mint      string  `json:"mint"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	Timestamp int64   `json:"timestamp"`
}

// PriceUpdateMessage is the WebSocket frame envelope.
type PriceUpdateMessage struct {
	Type string      `json:"type"`
	Data PriceUpdate `json:"data"`
}
