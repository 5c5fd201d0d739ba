package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"walletclear/internal/analysis"
	"walletclear/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidPage      = errors.New("page must be positive")
)

type TransactionSource interface {
	FetchTransactions(ctx context.Context, address string, chain domain.Chain, page int) ([]domain.RawTransaction, error)
}

// PriceSource returns the USD price of a chain's native asset, or 0 when the
// price is unavailable.
type PriceSource interface {
	NativePrice(ctx context.Context, chain domain.Chain) float64
}

type SummaryWriter interface {
	StoreSummary(ctx context.Context, record domain.SummaryRecord, summary domain.WalletSummary) (int64, error)
	StoreFlagged(ctx context.Context, flagged []domain.FlaggedTransaction) error
}

type SummaryReader interface {
	QuerySummaries(ctx context.Context, filter SummaryQueryFilter) ([]domain.SummaryRecord, error)
	LatestSummary(ctx context.Context, address, chain string) (domain.WalletSummary, bool, error)
	QueryFlagged(ctx context.Context, filter FlaggedQueryFilter) ([]domain.FlaggedTransaction, error)
	Ping(ctx context.Context) error
}

type SummaryRepository interface {
	SummaryWriter
	SummaryReader
}

type SummaryKey struct {
	Address string
	Chain   string
	Page    int
}

type SummaryCache interface {
	GetSummary(ctx context.Context, key SummaryKey) (domain.WalletSummary, bool)
	SetSummary(ctx context.Context, key SummaryKey, summary domain.WalletSummary)
}

type EventPublisher interface {
	PublishSummary(ctx context.Context, chain domain.Chain, summary domain.WalletSummary) error
	PublishPoisoning(ctx context.Context, chain domain.Chain, address string, txs []domain.ParsedTransaction) error
}

type WalletObserver interface {
	OnAnalyzed(chain string, summary domain.WalletSummary, elapsed time.Duration, cached bool)
}

type AnalyzeRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	Page    int    `json:"page"`
}

type WalletServiceConfig struct {
	Store     SummaryWriter
	Cache     SummaryCache
	Publisher EventPublisher
	Observer  WalletObserver
	Now       func() time.Time
}

// WalletService runs one analysis request end to end: fetch, price, parse,
// tally, then store, publish and cache the result. Only fetching can fail a
// request; the later side effects are logged and skipped on error.
type WalletService struct {
	source    TransactionSource
	prices    PriceSource
	parser    *analysis.Parser
	store     SummaryWriter
	cache     SummaryCache
	publisher EventPublisher
	observer  WalletObserver
	now       func() time.Time
	tracer    trace.Tracer
}

func NewWalletService(source TransactionSource, prices PriceSource, parser *analysis.Parser, cfg WalletServiceConfig) (*WalletService, error) {
	if source == nil || prices == nil || parser == nil {
		return nil, errors.New("wallet service dependencies must not be nil")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &WalletService{
		source:    source,
		prices:    prices,
		parser:    parser,
		store:     cfg.Store,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		observer:  cfg.Observer,
		now:       cfg.Now,
		tracer:    otel.Tracer("walletclear/application"),
	}, nil
}

// ValidateRequest checks the address and chain and applies the default page.
func ValidateRequest(req AnalyzeRequest) (string, domain.Chain, int, error) {
	address := strings.TrimSpace(req.Address)
	if !common.IsHexAddress(address) || !strings.HasPrefix(strings.ToLower(address), "0x") {
		return "", domain.Chain{}, 0, ErrInvalidAddress
	}
	chainKey := req.Chain
	if strings.TrimSpace(chainKey) == "" {
		chainKey = "ethereum"
	}
	chain, ok := domain.LookupChain(chainKey)
	if !ok {
		return "", domain.Chain{}, 0, fmt.Errorf("%w: %s", ErrUnsupportedChain, chainKey)
	}
	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return "", domain.Chain{}, 0, ErrInvalidPage
	}
	return address, chain, page, nil
}

func (s *WalletService) Analyze(ctx context.Context, req AnalyzeRequest) (domain.WalletSummary, error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "wallet.analyze")
	defer span.End()

	address, chain, page, err := ValidateRequest(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.WalletSummary{}, err
	}
	span.SetAttributes(
		attribute.String("wallet.address", strings.ToLower(address)),
		attribute.String("wallet.chain", chain.Key),
		attribute.Int("wallet.page", page),
	)

	key := SummaryKey{Address: strings.ToLower(address), Chain: chain.Key, Page: page}
	if s.cache != nil {
		if cached, ok := s.cache.GetSummary(ctx, key); ok {
			span.SetAttributes(attribute.Bool("wallet.cached", true))
			s.observe(chain.Key, cached, started, true)
			return cached, nil
		}
	}

	raw, price, err := s.fetch(ctx, address, chain, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.WalletSummary{}, err
	}

	_, parseSpan := s.tracer.Start(ctx, "wallet.parse", trace.WithAttributes(attribute.Int("wallet.raw", len(raw))))
	parsed := s.parser.Parse(raw, address, chain, price)
	summary := analysis.Summarize(address, chain.Key, parsed)
	parseSpan.SetAttributes(
		attribute.Int("wallet.spam", summary.SpamCount),
		attribute.Int("wallet.poisoning", summary.PoisoningCount),
	)
	parseSpan.End()

	s.persist(ctx, chain, page, summary)
	s.publish(ctx, chain, summary)
	if s.cache != nil {
		s.cache.SetSummary(ctx, key, summary)
	}

	slog.Info("wallet analyzed",
		"address", key.Address,
		"chain", chain.Key,
		"page", page,
		"total", summary.TotalTransactions,
		"spam", summary.SpamCount,
		"poisoning", summary.PoisoningCount,
		"price_usd", price,
	)
	s.observe(chain.Key, summary, started, false)
	return summary, nil
}

func (s *WalletService) fetch(ctx context.Context, address string, chain domain.Chain, page int) ([]domain.RawTransaction, float64, error) {
	ctx, span := s.tracer.Start(ctx, "wallet.fetch")
	defer span.End()

	var (
		raw   []domain.RawTransaction
		price float64
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		txs, err := s.source.FetchTransactions(groupCtx, address, chain, page)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		raw = txs
		return nil
	})
	group.Go(func() error {
		price = s.prices.NativePrice(groupCtx, chain)
		return nil
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	span.SetAttributes(attribute.Int("wallet.raw", len(raw)), attribute.Float64("wallet.price_usd", price))
	return raw, price, nil
}

func (s *WalletService) persist(ctx context.Context, chain domain.Chain, page int, summary domain.WalletSummary) {
	if s.store == nil {
		return
	}
	ctx, span := s.tracer.Start(ctx, "wallet.persist")
	defer span.End()

	address := strings.ToLower(summary.Address)
	record := domain.SummaryRecord{
		Address:        address,
		Chain:          chain.Key,
		Page:           page,
		Total:          summary.TotalTransactions,
		SpamCount:      summary.SpamCount,
		PoisoningCount: summary.PoisoningCount,
		AnalyzedAt:     s.now().UTC(),
	}
	if _, err := s.store.StoreSummary(ctx, record, summary); err != nil {
		span.RecordError(err)
		slog.Warn("store summary failed", "address", address, "chain", chain.Key, "err", err)
		return
	}
	flagged := FlaggedTransactions(chain.Key, address, summary.Transactions)
	if len(flagged) == 0 {
		return
	}
	if err := s.store.StoreFlagged(ctx, flagged); err != nil {
		span.RecordError(err)
		slog.Warn("store flagged failed", "address", address, "chain", chain.Key, "count", len(flagged), "err", err)
	}
}

func (s *WalletService) publish(ctx context.Context, chain domain.Chain, summary domain.WalletSummary) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSummary(ctx, chain, summary); err != nil {
		slog.Warn("publish summary failed", "chain", chain.Key, "err", err)
	}
	var poisoned []domain.ParsedTransaction
	for _, tx := range summary.Transactions {
		if tx.IsPoisoning {
			poisoned = append(poisoned, tx)
		}
	}
	if len(poisoned) == 0 {
		return
	}
	if err := s.publisher.PublishPoisoning(ctx, chain, summary.Address, poisoned); err != nil {
		slog.Warn("publish poisoning failed", "chain", chain.Key, "count", len(poisoned), "err", err)
	}
}

func (s *WalletService) observe(chain string, summary domain.WalletSummary, started time.Time, cached bool) {
	if s.observer == nil {
		return
	}
	s.observer.OnAnalyzed(chain, summary, s.now().Sub(started), cached)
}

// FlaggedTransactions keeps the records marked spam or poisoning.
func FlaggedTransactions(chain, address string, txs []domain.ParsedTransaction) []domain.FlaggedTransaction {
	var flagged []domain.FlaggedTransaction
	for _, tx := range txs {
		if !tx.IsSpam && !tx.IsPoisoning {
			continue
		}
		flagged = append(flagged, domain.FlaggedTransaction{
			Chain:           chain,
			Hash:            tx.Hash,
			Source:          tx.Source,
			Address:         address,
			Type:            tx.Type,
			IsSpam:          tx.IsSpam,
			IsPoisoning:     tx.IsPoisoning,
			PoisoningTarget: tx.PoisoningTarget,
			From:            strings.ToLower(tx.From),
			To:              strings.ToLower(tx.To),
			BlockNumber:     tx.BlockNumber,
			Timestamp:       tx.Timestamp,
		})
	}
	return flagged
}
