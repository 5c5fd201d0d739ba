package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL     = "https://api.coingecko.com/api/v3/simple/price"
	defaultTimeout = 10 * time.Second
)

type Config struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// CoinGecko fetches USD spot prices from the simple/price endpoint.
type CoinGecko struct {
	url        string
	httpClient *http.Client
}

func NewCoinGecko(cfg Config) *CoinGecko {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &CoinGecko{url: cfg.URL, httpClient: httpClient}
}

// FetchPrices returns the USD price of every id in a single request. Ids the
// endpoint does not know map to 0.
func (c *CoinGecko) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return nil, errors.New("price ids are required")
	}
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("price status %d", resp.StatusCode)
	}

	var decoded map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	prices := make(map[string]float64, len(ids))
	for _, id := range ids {
		prices[id] = decoded[id].USD
	}
	return prices, nil
}
