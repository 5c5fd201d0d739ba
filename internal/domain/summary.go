package domain

import "time"

// WalletSummary aggregates one analyzed page of a wallet's history.
type WalletSummary struct {
	Address           string              `json:"address"`
	Chain             string              `json:"chain"`
	TotalTransactions int                 `json:"totalTransactions"`
	SpamCount         int                 `json:"spamCount"`
	PoisoningCount    int                 `json:"poisoningCount"`
	Transactions      []ParsedTransaction `json:"transactions"`
}

// SummaryRecord is the stored metadata of an analysis run.
type SummaryRecord struct {
	ID             int64     `json:"id"`
	Address        string    `json:"address"`
	Chain          string    `json:"chain"`
	Page           int       `json:"page"`
	Total          int       `json:"total"`
	SpamCount      int       `json:"spam_count"`
	PoisoningCount int       `json:"poisoning_count"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// FlaggedTransaction is a stored record that was marked spam or poisoning.
type FlaggedTransaction struct {
	Chain           string          `json:"chain"`
	Hash            string          `json:"hash"`
	Source          SourceKind      `json:"source"`
	Address         string          `json:"address"`
	Type            TransactionType `json:"type"`
	IsSpam          bool            `json:"is_spam"`
	IsPoisoning     bool            `json:"is_poisoning"`
	PoisoningTarget string          `json:"poisoning_target,omitempty"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	BlockNumber     uint64          `json:"block_number"`
	Timestamp       int64           `json:"timestamp"`
}
