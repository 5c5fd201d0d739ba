package domain

// SourceKind tags which explorer feed produced a raw record.
type SourceKind string

const (
	SourceNative   SourceKind = "native"
	SourceFungible SourceKind = "fungible"
	SourceNFT      SourceKind = "nft"
)

// RawTransaction is one explorer row for a wallet. Numeric fields are kept as
// the decimal strings the explorer returns and may be empty or malformed.
type RawTransaction struct {
	Hash            string     `json:"hash"`
	TimeStamp       string     `json:"timeStamp"`
	BlockNumber     string     `json:"blockNumber"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	Value           string     `json:"value"`
	Gas             string     `json:"gas,omitempty"`
	GasUsed         string     `json:"gasUsed"`
	GasPrice        string     `json:"gasPrice"`
	IsError         string     `json:"isError,omitempty"`
	Input           string     `json:"input"`
	ContractAddress string     `json:"contractAddress,omitempty"`
	FunctionName    string     `json:"functionName,omitempty"`
	TokenName       string     `json:"tokenName,omitempty"`
	TokenSymbol     string     `json:"tokenSymbol,omitempty"`
	TokenDecimal    string     `json:"tokenDecimal,omitempty"`
	TokenID         string     `json:"tokenID,omitempty"`
	Source          SourceKind `json:"sourceKind,omitempty"`
}

// TransactionType is the single semantic category assigned to a record.
type TransactionType string

const (
	TypeTransfer            TransactionType = "transfer"
	TypeSwap                TransactionType = "swap"
	TypeNFT                 TransactionType = "nft"
	TypeApproval            TransactionType = "approval"
	TypeContractInteraction TransactionType = "contract_interaction"
	TypeSpam                TransactionType = "spam"
	TypeUnknown             TransactionType = "unknown"
)

// Direction is relative to the wallet being inspected.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionSelf Direction = "self"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ParsedTransaction is the enriched, human-readable form of a RawTransaction.
type ParsedTransaction struct {
	Hash            string          `json:"hash"`
	Timestamp       int64           `json:"timestamp"`
	Date            string          `json:"date"`
	Type            TransactionType `json:"type"`
	Direction       Direction       `json:"direction"`
	Value           string          `json:"value"`
	ValueUSD        string          `json:"valueUsd,omitempty"`
	Token           string          `json:"token,omitempty"`
	TokenSymbol     string          `json:"tokenSymbol,omitempty"`
	From            string          `json:"from"`
	FromLabel       string          `json:"fromLabel,omitempty"`
	To              string          `json:"to"`
	ToLabel         string          `json:"toLabel,omitempty"`
	GasUsed         string          `json:"gasUsed"`
	GasUSD          string          `json:"gasUsd,omitempty"`
	Status          Status          `json:"status"`
	IsSpam          bool            `json:"isSpam"`
	IsPoisoning     bool            `json:"isPoisoning"`
	PoisoningTarget string          `json:"poisoningTarget,omitempty"`
	Description     string          `json:"description"`
	Chain           string          `json:"chain"`
	BlockNumber     uint64          `json:"blockNumber"`
	ExplorerURL     string          `json:"explorerUrl"`
	Source          SourceKind      `json:"-"`
}
