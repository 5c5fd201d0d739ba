package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	priceKeyPrefix   = "walletclear:price:"
	summaryKeyPrefix = "walletclear:summary:"
	defaultTTL       = time.Minute
)

type Config struct {
	Addr       string
	SummaryTTL time.Duration
}

// Cache shares prices and wallet summaries across instances through Redis.
type Cache struct {
	client     *redis.Client
	summaryTTL time.Duration
}

func New(cfg Config) (*Cache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newCache(client, cfg.SummaryTTL), nil
}

func newCache(client *redis.Client, summaryTTL time.Duration) *Cache {
	if summaryTTL < 0 {
		summaryTTL = defaultTTL
	}
	return &Cache{client: client, summaryTTL: summaryTTL}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get implements pricing.Store.
func (c *Cache) Get(ctx context.Context, id string) (float64, bool) {
	raw, err := c.client.Get(ctx, priceKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("price cache read failed", "id", id, "err", err)
		}
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// Set implements pricing.Store.
func (c *Cache) Set(ctx context.Context, prices map[string]float64, ttl time.Duration) {
	if len(prices) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for id, price := range prices {
		pipe.Set(ctx, priceKey(id), strconv.FormatFloat(price, 'f', -1, 64), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("price cache write failed", "err", err)
	}
}

// GetSummary implements application.SummaryCache.
func (c *Cache) GetSummary(ctx context.Context, key application.SummaryKey) (domain.WalletSummary, bool) {
	if c.summaryTTL == 0 {
		return domain.WalletSummary{}, false
	}
	cached, err := c.client.Get(ctx, SummaryKey(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("summary cache read failed", "err", err)
		}
		return domain.WalletSummary{}, false
	}
	var summary domain.WalletSummary
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		return domain.WalletSummary{}, false
	}
	return summary, true
}

// SetSummary implements application.SummaryCache.
func (c *Cache) SetSummary(ctx context.Context, key application.SummaryKey, summary domain.WalletSummary) {
	if c.summaryTTL == 0 {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, SummaryKey(key), payload, c.summaryTTL).Err(); err != nil {
		slog.Warn("summary cache write failed", "err", err)
	}
}

func priceKey(id string) string {
	return priceKeyPrefix + id
}

func SummaryKey(key application.SummaryKey) string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(summaryKeyPrefix)
	b.WriteString(strings.ToLower(key.Chain))
	b.WriteString(":")
	b.WriteString(strings.ToLower(key.Address))
	b.WriteString(":page=")
	b.WriteString(strconv.Itoa(key.Page))
	return b.String()
}
