package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"walletclear/internal/application"
	"walletclear/internal/domain"
	"walletclear/internal/infrastructure/mysql"
	"walletclear/internal/infrastructure/sqlite"
)

type Config struct {
	DSN  string
	Path string
}

type backend interface {
	application.SummaryRepository
	io.Closer
}

// Repository fronts whichever database backend was configured. MySQL wins
// when a DSN is set; otherwise summaries go to a local SQLite file.
type Repository struct {
	backend backend
	kind    string
}

func Open(cfg Config) (*Repository, error) {
	if cfg.DSN != "" {
		repo, err := mysql.NewRepository(cfg.DSN)
		if err != nil {
			return nil, err
		}
		slog.Info("storage opened", "backend", "mysql")
		return &Repository{backend: repo, kind: "mysql"}, nil
	}
	if cfg.Path == "" {
		return nil, errors.New("db dsn or db path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	repo, err := sqlite.NewRepository(cfg.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("storage opened", "backend", "sqlite", "path", cfg.Path)
	return &Repository{backend: repo, kind: "sqlite"}, nil
}

// Kind names the active backend.
func (r *Repository) Kind() string {
	return r.kind
}

func (r *Repository) StoreSummary(ctx context.Context, record domain.SummaryRecord, summary domain.WalletSummary) (int64, error) {
	return r.backend.StoreSummary(ctx, record, summary)
}

func (r *Repository) StoreFlagged(ctx context.Context, flagged []domain.FlaggedTransaction) error {
	return r.backend.StoreFlagged(ctx, flagged)
}

func (r *Repository) QuerySummaries(ctx context.Context, filter application.SummaryQueryFilter) ([]domain.SummaryRecord, error) {
	return r.backend.QuerySummaries(ctx, filter)
}

func (r *Repository) LatestSummary(ctx context.Context, address, chain string) (domain.WalletSummary, bool, error) {
	return r.backend.LatestSummary(ctx, address, chain)
}

func (r *Repository) QueryFlagged(ctx context.Context, filter application.FlaggedQueryFilter) ([]domain.FlaggedTransaction, error) {
	return r.backend.QueryFlagged(ctx, filter)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.backend.Ping(ctx)
}

func (r *Repository) Close() error {
	return r.backend.Close()
}
