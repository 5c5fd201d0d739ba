package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/domain"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one writer at a time; modernc returns SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS wallet_summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			address TEXT NOT NULL,
			chain TEXT NOT NULL,
			page INTEGER NOT NULL,
			total INTEGER NOT NULL,
			spam_count INTEGER NOT NULL,
			poisoning_count INTEGER NOT NULL,
			analyzed_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS wallet_summaries_lookup ON wallet_summaries (address, chain, analyzed_at)`,
		`CREATE TABLE IF NOT EXISTS flagged_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chain TEXT NOT NULL,
			hash TEXT NOT NULL,
			source TEXT NOT NULL,
			address TEXT NOT NULL,
			tx_type TEXT NOT NULL,
			is_spam INTEGER NOT NULL,
			is_poisoning INTEGER NOT NULL,
			poisoning_target TEXT NOT NULL,
			from_addr TEXT NOT NULL,
			to_addr TEXT NOT NULL,
			block_number INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			UNIQUE(chain, hash, address, from_addr, to_addr, tx_type)
		)`,
		`CREATE INDEX IF NOT EXISTS flagged_address ON flagged_transactions (address, chain, timestamp)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) StoreSummary(ctx context.Context, record domain.SummaryRecord, summary domain.WalletSummary) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	payload, err := json.Marshal(summary)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, `INSERT INTO wallet_summaries
		(address, chain, page, total, spam_count, poisoning_count, analyzed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToLower(record.Address),
		record.Chain,
		record.Page,
		record.Total,
		record.SpamCount,
		record.PoisoningCount,
		record.AnalyzedAt.UnixMilli(),
		string(payload),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *Repository) StoreFlagged(ctx context.Context, flagged []domain.FlaggedTransaction) error {
	if len(flagged) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO flagged_transactions
		(chain, hash, source, address, tx_type, is_spam, is_poisoning, poisoning_target, from_addr, to_addr, block_number, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chain, hash, address, from_addr, to_addr, tx_type) DO UPDATE SET
			is_spam = excluded.is_spam,
			is_poisoning = excluded.is_poisoning,
			poisoning_target = excluded.poisoning_target`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, item := range flagged {
		if _, err := stmt.ExecContext(ctx,
			item.Chain,
			item.Hash,
			string(item.Source),
			strings.ToLower(item.Address),
			string(item.Type),
			boolToInt(item.IsSpam),
			boolToInt(item.IsPoisoning),
			item.PoisoningTarget,
			strings.ToLower(item.From),
			strings.ToLower(item.To),
			item.BlockNumber,
			item.Timestamp,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) QuerySummaries(ctx context.Context, filter application.SummaryQueryFilter) ([]domain.SummaryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.Address != "" {
		clauses = append(clauses, "address = ?")
		args = append(args, strings.ToLower(filter.Address))
	}
	if filter.Chain != "" {
		clauses = append(clauses, "chain = ?")
		args = append(args, strings.ToLower(filter.Chain))
	}

	query := `SELECT id, address, chain, page, total, spam_count, poisoning_count, analyzed_at FROM wallet_summaries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY analyzed_at DESC, id DESC LIMIT ?"
	args = append(args, application.NormalizeLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.SummaryRecord{}
	for rows.Next() {
		var record domain.SummaryRecord
		var analyzedAt int64
		if err := rows.Scan(&record.ID, &record.Address, &record.Chain, &record.Page, &record.Total, &record.SpamCount, &record.PoisoningCount, &analyzedAt); err != nil {
			return nil, err
		}
		record.AnalyzedAt = time.UnixMilli(analyzedAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) LatestSummary(ctx context.Context, address, chain string) (domain.WalletSummary, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM wallet_summaries
		WHERE address = ? AND chain = ?
		ORDER BY analyzed_at DESC, id DESC LIMIT 1`,
		strings.ToLower(address), strings.ToLower(chain),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WalletSummary{}, false, nil
	}
	if err != nil {
		return domain.WalletSummary{}, false, err
	}
	var summary domain.WalletSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return domain.WalletSummary{}, false, err
	}
	return summary, true, nil
}

func (r *Repository) QueryFlagged(ctx context.Context, filter application.FlaggedQueryFilter) ([]domain.FlaggedTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.Address != "" {
		clauses = append(clauses, "address = ?")
		args = append(args, strings.ToLower(filter.Address))
	}
	if filter.Chain != "" {
		clauses = append(clauses, "chain = ?")
		args = append(args, strings.ToLower(filter.Chain))
	}
	if filter.PoisoningOnly {
		clauses = append(clauses, "is_poisoning = 1")
	}

	query := `SELECT chain, hash, source, address, tx_type, is_spam, is_poisoning, poisoning_target, from_addr, to_addr, block_number, timestamp FROM flagged_transactions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, application.NormalizeLimit(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flagged := []domain.FlaggedTransaction{}
	for rows.Next() {
		var item domain.FlaggedTransaction
		var source, txType string
		var isSpam, isPoisoning int
		if err := rows.Scan(&item.Chain, &item.Hash, &source, &item.Address, &txType, &isSpam, &isPoisoning, &item.PoisoningTarget, &item.From, &item.To, &item.BlockNumber, &item.Timestamp); err != nil {
			return nil, err
		}
		item.Source = domain.SourceKind(source)
		item.Type = domain.TransactionType(txType)
		item.IsSpam = isSpam != 0
		item.IsPoisoning = isPoisoning != 0
		flagged = append(flagged, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flagged, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
