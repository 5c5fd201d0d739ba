package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("db dsn is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS wallet_summaries (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			address VARCHAR(42) NOT NULL,
			chain VARCHAR(32) NOT NULL,
			page INT UNSIGNED NOT NULL,
			total INT UNSIGNED NOT NULL,
			spam_count INT UNSIGNED NOT NULL,
			poisoning_count INT UNSIGNED NOT NULL,
			analyzed_at BIGINT NOT NULL,
			payload MEDIUMTEXT NOT NULL,
			PRIMARY KEY (id),
			KEY summaries_lookup_idx (address, chain, analyzed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS flagged_transactions (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			chain VARCHAR(32) NOT NULL,
			hash VARCHAR(66) NOT NULL,
			source VARCHAR(16) NOT NULL,
			address VARCHAR(42) NOT NULL,
			tx_type VARCHAR(32) NOT NULL,
			is_spam TINYINT(1) NOT NULL,
			is_poisoning TINYINT(1) NOT NULL,
			poisoning_target VARCHAR(42) NOT NULL DEFAULT '',
			from_addr VARCHAR(42) NOT NULL,
			to_addr VARCHAR(42) NOT NULL,
			block_number BIGINT UNSIGNED NOT NULL,
			timestamp BIGINT NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY flagged_unique (chain, hash, address, from_addr, to_addr, tx_type),
			KEY flagged_address_idx (address, chain, timestamp)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) StoreSummary(ctx context.Context, record domain.SummaryRecord, summary domain.WalletSummary) (int64, error) {
	ctx, span := startDBSpan(ctx, "mysql.StoreSummary",
		attribute.String("wallet.chain", record.Chain),
		attribute.Int("wallet.total", record.Total),
	)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	payload, err := json.Marshal(summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return result.LastInsertId()
}

func (r *Repository) StoreFlagged(ctx context.Context, flagged []domain.FlaggedTransaction) error {
	if len(flagged) == 0 {
		return nil
	}
	ctx, span := startDBSpan(ctx, "mysql.StoreFlagged", attribute.Int("flagged.count", len(flagged)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO flagged_transactions
		(chain, hash, source, address, tx_type, is_spam, is_poisoning, poisoning_target, from_addr, to_addr, block_number, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			is_spam = VALUES(is_spam),
			is_poisoning = VALUES(is_poisoning),
			poisoning_target = VALUES(poisoning_target)`)
	if err != nil {
		_ = tx.Rollback()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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
			item.IsSpam,
			item.IsPoisoning,
			item.PoisoningTarget,
			strings.ToLower(item.From),
			strings.ToLower(item.To),
			item.BlockNumber,
			item.Timestamp,
		); err != nil {
			_ = tx.Rollback()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Repository) QuerySummaries(ctx context.Context, filter application.SummaryQueryFilter) ([]domain.SummaryRecord, error) {
	ctx, span := startDBSpan(ctx, "mysql.QuerySummaries")
	defer span.End()
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
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
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
	ctx, span := startDBSpan(ctx, "mysql.LatestSummary", attribute.String("wallet.chain", chain))
	defer span.End()
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
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.WalletSummary{}, false, err
	}
	var summary domain.WalletSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return domain.WalletSummary{}, false, err
	}
	return summary, true, nil
}

func (r *Repository) QueryFlagged(ctx context.Context, filter application.FlaggedQueryFilter) ([]domain.FlaggedTransaction, error) {
	ctx, span := startDBSpan(ctx, "mysql.QueryFlagged", attribute.Bool("poisoning_only", filter.PoisoningOnly))
	defer span.End()
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
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	flagged := []domain.FlaggedTransaction{}
	for rows.Next() {
		var item domain.FlaggedTransaction
		var source, txType string
		if err := rows.Scan(&item.Chain, &item.Hash, &source, &item.Address, &txType, &item.IsSpam, &item.IsPoisoning, &item.PoisoningTarget, &item.From, &item.To, &item.BlockNumber, &item.Timestamp); err != nil {
			return nil, err
		}
		item.Source = domain.SourceKind(source)
		item.Type = domain.TransactionType(txType)
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

func startDBSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", "mysql"))
	return otel.Tracer("walletclear/mysql").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}
