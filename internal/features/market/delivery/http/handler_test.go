package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xforce-terminal-backend/internal/features/market/models"
	"xforce-terminal-backend/internal/features/market/service"
	"xforce-terminal-backend/internal/platform/jupiter"
	"xforce-terminal-backend/internal/workers"
)

type stubPriceSource struct {
	prices    map[string]float64
	requested []string
}

func (s *stubPriceSource) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	s.requested = append(s.requested, symbols...)
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if p, ok := s.prices[sym]; ok {
			out[sym] = p
		}
	}
	return out, nil
}

func (s *stubPriceSource) Tokens() []jupiter.TokenInfo { return nil }

type stubPriceReader struct {
	cached map[string]models.PriceUpdate
}

func (s *stubPriceReader) GetMany(ctx context.Context, symbols []string) (map[string]models.PriceUpdate, error) {
	out := make(map[string]models.PriceUpdate, len(symbols))
	for _, sym := range symbols {
		if u, ok := s.cached[sym]; ok {
			out[sym] = u
		}
	}
	return out, nil
}

func pricesRouter(source PriceSource, cache PriceReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewMarketHandler(service.NewCandleAggregator(), workers.NewPriceStream(nil, nil, nil, nil, 0, nil), source, cache)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"), func(c *gin.Context) { c.Next() })
	return router
}

func getPricesBody(t *testing.T, router *gin.Engine, query string) map[string]float64 {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/market/prices?symbols="+query, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Prices map[string]float64 `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Prices
}

func TestGetPricesServedFromCache(t *testing.T) {
	source := &stubPriceSource{prices: map[string]float64{"SOL": 150}}
	cache := &stubPriceReader{cached: map[string]models.PriceUpdate{
		"SOL": {Symbol: "SOL", Price: 142.5},
	}}
	router := pricesRouter(source, cache)

	prices := getPricesBody(t, router, "sol")

	assert.Equal(t, 142.5, prices["SOL"])
	assert.Empty(t, source.requested)
}

func TestGetPricesCacheMissFallsBackToClient(t *testing.T) {
	source := &stubPriceSource{prices: map[string]float64{"SOL": 150, "USDC": 1}}
	cache := &stubPriceReader{cached: map[string]models.PriceUpdate{
		"SOL": {Symbol: "SOL", Price: 142.5},
	}}
	router := pricesRouter(source, cache)

	prices := getPricesBody(t, router, "SOL,USDC")

	assert.Equal(t, 142.5, prices["SOL"])
	assert.Equal(t, 1.0, prices["USDC"])
	assert.Equal(t, []string{"USDC"}, source.requested)
}

func TestGetPricesNoCacheUsesClient(t *testing.T) {
	source := &stubPriceSource{prices: map[string]float64{"SOL": 150}}
	router := pricesRouter(source, nil)

	prices := getPricesBody(t, router, "%20sol%20,,SOL")

	assert.Equal(t, 150.0, prices["SOL"])
	assert.Equal(t, []string{"SOL"}, source.requested)
}
