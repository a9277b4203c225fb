package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/logger"
)

const (
	priceEndpoint     = "https://price.jup.ag/v6/price"
	tokenListEndpoint = "https://token.jup.ag/all"
	quoteEndpoint     = "https://quote-api.jup.ag/v6/quote"
	swapEndpoint      = "https://quote-api.jup.ag/v6/swap"

	requestTimeout       = 10 * time.Second
	tokenRefreshInterval = time.Hour
)

// Well-known mints used when the token directory has not loaded yet.
var fallbackMints = map[string]string{
	"SOL":  "So11111111111111111111111111111111111111112",
	"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	"BTC":  "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E",
	"ETH":  "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs",
	"JUP":  "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",
	"RAY":  "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
	"ORCA": "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE",
	"BONK": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	"WIF":  "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm",
}

type tokenCache struct {
	mu           sync.RWMutex
	symbolToMint map[string]string
	tokens       []TokenInfo
	lastRefresh  time.Time
}

// Client talks to the Jupiter-style aggregator with a cached token
// directory and layered price fallbacks.
type Client struct {
	http  *http.Client
	cache tokenCache
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: requestTimeout},
	}
}

// StartTokenRefresh keeps the token directory fresh in the background.
func (c *Client) StartTokenRefresh(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(tokenRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.RefreshTokens(ctx); err != nil {
					logger.Warn().Err(err).Msg("Token directory refresh failed")
				}
			}
		}
	}()
}

// RefreshTokens reloads the full token directory.
func (c *Client) RefreshTokens(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenListEndpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewAggregatorError("token list", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.NewAggregatorError("token list", statusError(resp))
	}

	var tokens []TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return errors.NewAggregatorError("token list decode", err)
	}

	mapping := make(map[string]string, len(tokens))
	for _, t := range tokens {
		sym := strings.ToUpper(t.Symbol)
		if _, exists := mapping[sym]; !exists {
			mapping[sym] = t.Address
		}
	}

	c.cache.mu.Lock()
	c.cache.symbolToMint = mapping
	c.cache.tokens = tokens
	c.cache.lastRefresh = time.Now()
	c.cache.mu.Unlock()

	logger.Info().Int("tokens", len(tokens)).Msg("Token directory refreshed")
	return nil
}

// Tokens returns the cached token directory.
func (c *Client) Tokens() []TokenInfo {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()
	out := make([]TokenInfo, len(c.cache.tokens))
	copy(out, c.cache.tokens)
	return out
}

// ResolveMint maps an uppercase symbol to its mint address, falling back
// to the hardcoded set when the directory has no entry.
func (c *Client) ResolveMint(symbol string) (string, bool) {
	sym := strings.ToUpper(symbol)

	c.cache.mu.RLock()
	mint, ok := c.cache.symbolToMint[sym]
	c.cache.mu.RUnlock()
	if ok {
		return mint, true
	}

	mint, ok = fallbackMints[sym]
	return mint, ok
}

// Quote fetches a swap quote. Amount is in base units of the input mint.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*QuoteResponse, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", fmt.Sprintf("%d", amount))
	params.Set("slippageBps", fmt.Sprintf("%d", slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewAggregatorError("quote", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAggregatorError("quote", statusError(resp))
	}

	var quote QuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, errors.NewAggregatorError("quote decode", err)
	}
	if err := validateQuoteAmounts(&quote); err != nil {
		return nil, errors.NewAggregatorError("quote amounts", err)
	}
	return &quote, nil
}

// SwapTransaction asks the aggregator to build a wallet-ready swap
// transaction for the quoted route.
func (c *Client) SwapTransaction(ctx context.Context, quote *QuoteResponse, userPublicKey string) (*SwapTransactionResponse, error) {
	body, err := json.Marshal(swapRequest{
		QuoteResponse:             quote,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, swapEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewAggregatorError("swap", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAggregatorError("swap", statusError(resp))
	}

	var out SwapTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewAggregatorError("swap decode", err)
	}
	return &out, nil
}

func validateQuoteAmounts(q *QuoteResponse) error {
	for name, raw := range map[string]string{"inAmount": q.InAmount, "outAmount": q.OutAmount} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s %q is not a decimal", name, raw)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s %q is negative", name, raw)
		}
	}
	return nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
