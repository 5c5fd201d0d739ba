package bootstrap

import (
	"errors"
	"io"
	"log/slog"

	"walletclear/internal/analysis"
	"walletclear/internal/application"
	"walletclear/internal/config"
	"walletclear/internal/infrastructure/explorer"
	"walletclear/internal/infrastructure/kafka"
	"walletclear/internal/infrastructure/pricing"
	"walletclear/internal/infrastructure/rediscache"
	"walletclear/internal/infrastructure/storage"
)

type Options struct {
	// Persist opens the summary database and stores every analysis.
	Persist  bool
	Observer application.WalletObserver
}

// Wallet holds the wired analysis service and the resources it owns.
type Wallet struct {
	Service *application.WalletService
	Store   *storage.Repository
	closers []io.Closer
}

// NewParser builds the transaction parser from the spam and poisoning
// settings in cfg.
func NewParser(cfg config.Config) *analysis.Parser {
	return analysis.NewParser(analysis.ParserConfig{
		Spam: analysis.SpamConfig{
			DustThreshold: cfg.SpamDustThreshold,
			Keywords:      cfg.SpamKeywords,
			Contracts:     cfg.SpamContracts,
		},
		PoisoningDustThreshold: cfg.PoisoningDustThreshold,
		Workers:                cfg.ParserWorkers,
	})
}

// NewWallet connects the explorer, price feed, optional Redis cache, optional
// Kafka producer and, when requested, the summary database. Redis and Kafka
// are skipped with a warning when unavailable.
func NewWallet(cfg config.Config, opts Options) (*Wallet, error) {
	wallet := &Wallet{}

	source, err := explorer.NewClient(explorer.Config{
		BaseURL:  cfg.ExplorerURL,
		APIKey:   cfg.ExplorerAPIKey,
		PageSize: cfg.ExplorerPageSize,
		Timeout:  cfg.ExplorerTimeout,
	})
	if err != nil {
		return nil, err
	}

	serviceCfg := application.WalletServiceConfig{Observer: opts.Observer}

	var priceStore pricing.Store = pricing.NewMemoryStore()
	if cfg.RedisAddr != "" {
		cache, err := rediscache.New(rediscache.Config{Addr: cfg.RedisAddr, SummaryTTL: cfg.SummaryCacheTTL})
		if err != nil {
			slog.Warn("redis cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			wallet.closers = append(wallet.closers, cache)
			priceStore = cache
			if cfg.SummaryCacheTTL > 0 {
				serviceCfg.Cache = cache
			}
		}
	}
	prices := pricing.NewService(pricing.NewCoinGecko(pricing.Config{
		URL:     cfg.PriceURL,
		Timeout: cfg.PriceTimeout,
	}), priceStore, cfg.PriceCacheTTL)

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicPrefix,
		})
		if err != nil {
			slog.Warn("kafka publishing disabled", "err", err)
		} else {
			wallet.closers = append(wallet.closers, producer)
			serviceCfg.Publisher = producer
		}
	}

	if opts.Persist {
		store, err := storage.Open(storage.Config{DSN: cfg.DBDSN, Path: cfg.DBPath})
		if err != nil {
			_ = wallet.Close()
			return nil, err
		}
		wallet.closers = append(wallet.closers, store)
		wallet.Store = store
		serviceCfg.Store = store
	}

	service, err := application.NewWalletService(source, prices, NewParser(cfg), serviceCfg)
	if err != nil {
		_ = wallet.Close()
		return nil, err
	}
	wallet.Service = service
	return wallet, nil
}

// Close releases resources in reverse order of acquisition.
func (w *Wallet) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
