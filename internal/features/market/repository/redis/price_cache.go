package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/market/models"
	"xforce-terminal-backend/internal/platform/redis"
)

const (
	priceKeyPrefix = "market:price:"
	priceTTL       = 5 * time.Minute
)

// PriceCache keeps the latest tick per symbol in Redis so restarts and
// sibling processes see recent prices.
type PriceCache struct {
	client *redis.Client
}

func NewPriceCache(client *redis.Client) *PriceCache {
	return &PriceCache{client: client}
}

func priceKey(symbol string) string {
	return priceKeyPrefix + strings.ToUpper(symbol)
}

func (c *PriceCache) Set(ctx context.Context, update models.PriceUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, priceKey(update.Symbol), data, priceTTL).Err(); err != nil {
		return errors.NewCacheError("set price", err)
	}
	return nil
}

func (c *PriceCache) Get(ctx context.Context, symbol string) (*models.PriceUpdate, error) {
	data, err := c.client.Get(ctx, priceKey(symbol)).Bytes()
	if err != nil {
		return nil, errors.NewCacheError(fmt.Sprintf("get price %s", symbol), err)
	}
	var update models.PriceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, err
	}
	return &update, nil
}

// GetMany returns cached updates for the symbols that have one.
func (c *PriceCache) GetMany(ctx context.Context, symbols []string) (map[string]models.PriceUpdate, error) {
	if len(symbols) == 0 {
		return map[string]models.PriceUpdate{}, nil
	}
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = priceKey(s)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.NewCacheError("mget prices", err)
	}
	out := make(map[string]models.PriceUpdate, len(symbols))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var update models.PriceUpdate
		if err := json.Unmarshal([]byte(s), &update); err != nil {
			continue
		}
		out[update.Symbol] = update
	}
	return out, nil
}
