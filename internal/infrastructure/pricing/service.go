package pricing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"walletclear/internal/domain"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = 5 * time.Minute
	// fetchTimeout bounds the shared upstream fetch, detached from callers.
	fetchTimeout = 10 * time.Second
)

type Fetcher interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// Store keeps fetched prices for a freshness window.
type Store interface {
	Get(ctx context.Context, id string) (float64, bool)
	Set(ctx context.Context, prices map[string]float64, ttl time.Duration)
}

// Service answers native asset prices from the store, refreshing every
// supported chain's price in one fetch on a miss. Failures yield 0.
type Service struct {
	fetcher Fetcher
	store   Store
	ttl     time.Duration
	ids     []string
	flight  singleflight.Group
}

func NewService(fetcher Fetcher, store Store, ttl time.Duration) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	chains := domain.SupportedChains()
	ids := make([]string, 0, len(chains))
	for _, chain := range chains {
		ids = append(ids, chain.CoingeckoID)
	}
	return &Service{fetcher: fetcher, store: store, ttl: ttl, ids: ids}
}

func (s *Service) NativePrice(ctx context.Context, chain domain.Chain) float64 {
	if chain.CoingeckoID == "" {
		return 0
	}
	if price, ok := s.store.Get(ctx, chain.CoingeckoID); ok {
		return price
	}

	result, err, _ := s.flight.Do("prices", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		prices, err := s.fetcher.FetchPrices(fetchCtx, s.ids)
		if err != nil {
			return nil, err
		}
		s.store.Set(fetchCtx, prices, s.ttl)
		return prices, nil
	})
	if err != nil {
		slog.Warn("price fetch failed", "chain", chain.Key, "err", err)
		return 0
	}
	return result.(map[string]float64)[chain.CoingeckoID]
}

type memoryEntry struct {
	price   float64
	expires time.Time
}

// MemoryStore is the in-process Store used when no shared cache is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, id string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok || !m.now().Before(entry.expires) {
		return 0, false
	}
	return entry.price, true
}

func (m *MemoryStore) Set(_ context.Context, prices map[string]float64, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires := m.now().Add(ttl)
	for id, price := range prices {
		m.entries[id] = memoryEntry{price: price, expires: expires}
	}
}
