package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/market/models"
	"xforce-terminal-backend/internal/features/market/service"
	"xforce-terminal-backend/internal/platform/jupiter"
	"xforce-terminal-backend/internal/workers"
)

const (
	defaultCandleLimit = 100
	maxCandleLimit     = 500
)

// PriceSource supplies live prices and the token directory.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) (map[string]float64, error)
	Tokens() []jupiter.TokenInfo
}

// PriceReader reads recently cached ticks.
type PriceReader interface {
	GetMany(ctx context.Context, symbols []string) (map[string]models.PriceUpdate, error)
}

type MarketHandler struct {
	aggregator *service.CandleAggregator
	stream     *workers.PriceStream
	client     PriceSource
	cache      PriceReader
}

// NewMarketHandler builds the market surface. cache may be nil when
// Redis is not configured.
func NewMarketHandler(aggregator *service.CandleAggregator, stream *workers.PriceStream, client PriceSource, cache PriceReader) *MarketHandler {
	return &MarketHandler{
		aggregator: aggregator,
		stream:     stream,
		client:     client,
		cache:      cache,
	}
}

func (h *MarketHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	market := router.Group("/market")
	{
		market.GET("/prices", h.getPrices)
		market.GET("/candles", h.getCandles)
		market.GET("/tokens", h.getTokens)
	}

	tracked := router.Group("/market/tokens")
	tracked.Use(auth)
	{
		tracked.POST("", h.addTokens)
		tracked.DELETE("/:symbol", h.removeToken)
	}
}

func (h *MarketHandler) getPrices(c *gin.Context) {
	raw := c.Query("symbols")
	if raw == "" {
		middleware.Abort(c, errors.NewValidationError("symbols", "comma-separated list required"))
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	// Recent ticks come from the cache; only misses hit the upstream
	// aggregator.
	prices := make(map[string]float64, len(symbols))
	missing := symbols
	if h.cache != nil {
		if cached, err := h.cache.GetMany(c.Request.Context(), symbols); err == nil {
			missing = nil
			for _, sym := range symbols {
				if update, ok := cached[sym]; ok {
					prices[sym] = update.Price
				} else {
					missing = append(missing, sym)
				}
			}
		}
	}

	if len(missing) > 0 {
		fetched, err := h.client.Prices(c.Request.Context(), missing)
		if err != nil {
			middleware.Abort(c, err)
			return
		}
		for sym, price := range fetched {
			prices[sym] = price
		}
	}

	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

func (h *MarketHandler) getCandles(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		middleware.Abort(c, errors.NewValidationError("symbol", "required"))
		return
	}

	tf, err := models.ParseTimeframe(c.DefaultQuery("timeframe", string(models.Timeframe1m)))
	if err != nil {
		middleware.Abort(c, errors.NewValidationError("timeframe", err.Error()))
		return
	}

	limit := defaultCandleLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			middleware.Abort(c, errors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}

	candles := h.aggregator.Candles(symbol, tf, limit)
	if candles == nil {
		candles = []models.Candle{}
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    strings.ToUpper(symbol),
		"timeframe": tf,
		"candles":   candles,
	})
}

func (h *MarketHandler) getTokens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tracked": h.stream.TrackedSymbols(),
		"tokens":  h.client.Tokens(),
	})
}

type addTokensRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
}

func (h *MarketHandler) addTokens(c *gin.Context) {
	var req addTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("symbols", "required"))
		return
	}

	h.stream.AddTokens(req.Symbols)
	c.JSON(http.StatusOK, gin.H{"tracked": h.stream.TrackedSymbols()})
}

func (h *MarketHandler) removeToken(c *gin.Context) {
	symbol := c.Param("symbol")
	h.stream.RemoveTokens([]string{symbol})
	c.JSON(http.StatusOK, gin.H{"tracked": h.stream.TrackedSymbols()})
}
