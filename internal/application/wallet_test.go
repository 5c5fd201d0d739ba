package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"walletclear/internal/analysis"
	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWallet     = "0x1111111111111111111111111111111111111111"
	testPayee      = "0xaaaa120000000000000000000000000000cd1111"
	testLookalike  = "0xaaaa12ffffffffffffffffffffffffffffcd1111"
	testRouterAddr = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
)

type mockSource struct {
	txs   []domain.RawTransaction
	err   error
	calls int
	page  int
}

func (m *mockSource) FetchTransactions(ctx context.Context, address string, chain domain.Chain, page int) ([]domain.RawTransaction, error) {
	m.calls++
	m.page = page
	return m.txs, m.err
}

type mockPrices struct {
	price float64
}

func (m mockPrices) NativePrice(ctx context.Context, chain domain.Chain) float64 {
	return m.price
}

type mockStore struct {
	records   []domain.SummaryRecord
	summaries []domain.WalletSummary
	flagged   []domain.FlaggedTransaction
	err       error
}

func (m *mockStore) StoreSummary(ctx context.Context, record domain.SummaryRecord, summary domain.WalletSummary) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, record)
	m.summaries = append(m.summaries, summary)
	return int64(len(m.records)), nil
}

func (m *mockStore) StoreFlagged(ctx context.Context, flagged []domain.FlaggedTransaction) error {
	m.flagged = append(m.flagged, flagged...)
	return nil
}

type mockCache struct {
	mu      sync.Mutex
	entries map[SummaryKey]domain.WalletSummary
}

func (m *mockCache) GetSummary(ctx context.Context, key SummaryKey) (domain.WalletSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.entries[key]
	return summary, ok
}

func (m *mockCache) SetSummary(ctx context.Context, key SummaryKey, summary domain.WalletSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[SummaryKey]domain.WalletSummary)
	}
	m.entries[key] = summary
}

type mockPublisher struct {
	summaries []domain.WalletSummary
	poisoned  []domain.ParsedTransaction
	err       error
}

func (m *mockPublisher) PublishSummary(ctx context.Context, chain domain.Chain, summary domain.WalletSummary) error {
	m.summaries = append(m.summaries, summary)
	return m.err
}

func (m *mockPublisher) PublishPoisoning(ctx context.Context, chain domain.Chain, address string, txs []domain.ParsedTransaction) error {
	m.poisoned = append(m.poisoned, txs...)
	return m.err
}

type mockObserver struct {
	cached []bool
}

func (m *mockObserver) OnAnalyzed(chain string, summary domain.WalletSummary, elapsed time.Duration, cached bool) {
	m.cached = append(m.cached, cached)
}

func poisonedHistory() []domain.RawTransaction {
	return []domain.RawTransaction{
		{Hash: "0xlure", TimeStamp: "200", From: testLookalike, To: testWallet, Value: "1", Input: "0x", Source: domain.SourceNative},
		{Hash: "0xswap", TimeStamp: "150", From: testWallet, To: testRouterAddr, Value: "0", Input: "0x38ed1739000000", Source: domain.SourceNative},
		{Hash: "0xpay", TimeStamp: "100", From: testWallet, To: testPayee, Value: "1000000000000000000", Input: "0x", Source: domain.SourceNative},
	}
}

func newTestService(t *testing.T, source TransactionSource, cfg WalletServiceConfig) *WalletService {
	t.Helper()
	service, err := NewWalletService(source, mockPrices{price: 2000}, analysis.NewParser(analysis.ParserConfig{}), cfg)
	require.NoError(t, err)
	return service
}

func TestAnalyzeEndToEnd(t *testing.T) {
	source := &mockSource{txs: poisonedHistory()}
	store := &mockStore{}
	publisher := &mockPublisher{}
	observer := &mockObserver{}
	now := time.Date(2026, 2, 10, 14, 34, 0, 0, time.UTC)

	service := newTestService(t, source, WalletServiceConfig{
		Store:     store,
		Publisher: publisher,
		Observer:  observer,
		Now:       func() time.Time { return now },
	})

	summary, err := service.Analyze(context.Background(), AnalyzeRequest{Address: testWallet, Chain: "Ethereum"})
	require.NoError(t, err)

	assert.Equal(t, 1, source.page)
	assert.Equal(t, "ethereum", summary.Chain)
	assert.Equal(t, 3, summary.TotalTransactions)
	assert.Equal(t, 1, summary.SpamCount)
	assert.Equal(t, 1, summary.PoisoningCount)
	assert.Equal(t, testPayee, summary.Transactions[0].PoisoningTarget)
	assert.Equal(t, domain.TypeSwap, summary.Transactions[1].Type)
	assert.Equal(t, "2000.00", summary.Transactions[2].ValueUSD)

	require.Len(t, store.records, 1)
	assert.Equal(t, testWallet, store.records[0].Address)
	assert.Equal(t, 1, store.records[0].Page)
	assert.Equal(t, now, store.records[0].AnalyzedAt)
	require.Len(t, store.flagged, 1)
	assert.Equal(t, "0xlure", store.flagged[0].Hash)
	assert.True(t, store.flagged[0].IsPoisoning)

	require.Len(t, publisher.summaries, 1)
	require.Len(t, publisher.poisoned, 1)
	assert.Equal(t, []bool{false}, observer.cached)
}

func TestAnalyzeServesFromCache(t *testing.T) {
	source := &mockSource{txs: poisonedHistory()}
	cache := &mockCache{}
	observer := &mockObserver{}
	service := newTestService(t, source, WalletServiceConfig{Cache: cache, Observer: observer})

	first, err := service.Analyze(context.Background(), AnalyzeRequest{Address: testWallet, Chain: "ethereum", Page: 2})
	require.NoError(t, err)
	second, err := service.Analyze(context.Background(), AnalyzeRequest{Address: "0x1111111111111111111111111111111111111111", Chain: "ethereum", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, []bool{false, true}, observer.cached)
}

func TestAnalyzeValidation(t *testing.T) {
	source := &mockSource{}
	service := newTestService(t, source, WalletServiceConfig{})

	cases := []struct {
		name string
		req  AnalyzeRequest
		want error
	}{
		{"empty address", AnalyzeRequest{Chain: "ethereum"}, ErrInvalidAddress},
		{"short address", AnalyzeRequest{Address: "0x1234", Chain: "ethereum"}, ErrInvalidAddress},
		{"missing prefix", AnalyzeRequest{Address: "1111111111111111111111111111111111111111", Chain: "ethereum"}, ErrInvalidAddress},
		{"unknown chain", AnalyzeRequest{Address: testWallet, Chain: "solana"}, ErrUnsupportedChain},
		{"negative page", AnalyzeRequest{Address: testWallet, Chain: "bsc", Page: -1}, ErrInvalidPage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Analyze(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, source.calls)
}

func TestAnalyzeDefaultsToEthereum(t *testing.T) {
	service := newTestService(t, &mockSource{}, WalletServiceConfig{})

	summary, err := service.Analyze(context.Background(), AnalyzeRequest{Address: testWallet})
	require.NoError(t, err)
	assert.Equal(t, "ethereum", summary.Chain)
	assert.NotNil(t, summary.Transactions)
	assert.Zero(t, summary.TotalTransactions)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	source := &mockSource{err: errors.New("explorer down")}
	store := &mockStore{}
	service := newTestService(t, source, WalletServiceConfig{Store: store})

	_, err := service.Analyze(context.Background(), AnalyzeRequest{Address: testWallet, Chain: "ethereum"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explorer down")
	assert.Empty(t, store.records)
}

func TestAnalyzeToleratesSideEffectFailures(t *testing.T) {
	source := &mockSource{txs: poisonedHistory()}
	store := &mockStore{err: errors.New("disk full")}
	publisher := &mockPublisher{err: errors.New("broker unavailable")}
	service := newTestService(t, source, WalletServiceConfig{Store: store, Publisher: publisher})

	summary, err := service.Analyze(context.Background(), AnalyzeRequest{Address: testWallet, Chain: "polygon"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalTransactions)
	assert.Empty(t, store.flagged)
}

func TestNewWalletServiceRequiresDependencies(t *testing.T) {
	_, err := NewWalletService(nil, mockPrices{}, analysis.NewParser(analysis.ParserConfig{}), WalletServiceConfig{})
	assert.Error(t, err)
}

func TestFlaggedTransactions(t *testing.T) {
	txs := []domain.ParsedTransaction{
		{Hash: "0x1", IsSpam: true, From: "0xABC", To: "0xDEF"},
		{Hash: "0x2"},
		{Hash: "0x3", IsPoisoning: true, PoisoningTarget: testPayee},
	}

	flagged := FlaggedTransactions("ethereum", testWallet, txs)
	require.Len(t, flagged, 2)
	assert.Equal(t, "0xabc", flagged[0].From)
	assert.Equal(t, "0xdef", flagged[0].To)
	assert.Equal(t, testPayee, flagged[1].PoisoningTarget)
}
