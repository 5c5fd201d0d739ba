package rediscache

import (
	"context"
	"testing"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestSummaryKey(t *testing.T) {
	key := SummaryKey(application.SummaryKey{
		Address: "0xABCDEF0000000000000000000000000000000001",
		Chain:   "Ethereum",
		Page:    3,
	})
	assert.Equal(t, "walletclear:summary:ethereum:0xabcdef0000000000000000000000000000000001:page=3", key)
	assert.Equal(t, "walletclear:price:ethereum", priceKey("ethereum"))
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestUnreachableRedisDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := newCache(client, time.Minute)
	defer cache.Close()

	ctx := context.Background()
	_, ok := cache.Get(ctx, "ethereum")
	assert.False(t, ok)

	cache.SetSummary(ctx, application.SummaryKey{Address: "0x1", Chain: "ethereum", Page: 1}, summaryFixture())
	_, ok = cache.GetSummary(ctx, application.SummaryKey{Address: "0x1", Chain: "ethereum", Page: 1})
	assert.False(t, ok)
}

func summaryFixture() domain.WalletSummary {
	return domain.WalletSummary{Address: "0x1", Chain: "ethereum", Transactions: []domain.ParsedTransaction{}}
}
