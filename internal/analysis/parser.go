package analysis

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"walletclear/internal/domain"

	"golang.org/x/sync/errgroup"
)

const dateLayout = "Jan 2, 2006 • 3:04 PM"

type ParserConfig struct {
	Labels                 *LabelBook
	Spam                   SpamConfig
	PoisoningDustThreshold *big.Int
	// Workers above one fans the per-record pass out over that many goroutines.
	Workers int
}

// Parser turns a batch of raw explorer rows into ParsedTransactions. It does
// no I/O and never fails: malformed fields degrade to zero values.
type Parser struct {
	labels      *LabelBook
	spam        *SpamDetector
	categorizer *Categorizer
	poisonDust  *big.Int
	workers     int
}

func NewParser(cfg ParserConfig) *Parser {
	labels := cfg.Labels
	if labels == nil {
		labels = DefaultLabelBook()
	}
	spam := NewSpamDetector(cfg.Spam)
	poisonDust := DefaultPoisoningDustThreshold
	if cfg.PoisoningDustThreshold != nil {
		poisonDust = cfg.PoisoningDustThreshold
	}
	return &Parser{
		labels:      labels,
		spam:        spam,
		categorizer: NewCategorizer(labels, spam),
		poisonDust:  new(big.Int).Set(poisonDust),
		workers:     cfg.Workers,
	}
}

// Parse enriches batch for the subject wallet. Output order matches input
// order one to one.
func (p *Parser) Parse(batch []domain.RawTransaction, subject string, chain domain.Chain, nativeUSD float64) []domain.ParsedTransaction {
	out := make([]domain.ParsedTransaction, len(batch))
	if len(batch) == 0 {
		return out
	}
	index := NewSentToIndex(batch, subject, p.poisonDust)

	if p.workers <= 1 || len(batch) == 1 {
		for i, tx := range batch {
			out[i] = p.parseOne(tx, subject, chain, nativeUSD, index)
		}
		return out
	}

	var group errgroup.Group
	group.SetLimit(p.workers)
	for i := range batch {
		group.Go(func() error {
			out[i] = p.parseOne(batch[i], subject, chain, nativeUSD, index)
			return nil
		})
	}
	_ = group.Wait()
	return out
}

func (p *Parser) parseOne(tx domain.RawTransaction, subject string, chain domain.Chain, nativeUSD float64, index *SentToIndex) domain.ParsedTransaction {
	direction := DirectionOf(tx.From, tx.To, subject)
	txType := p.categorizer.Classify(tx)
	fromLabel, _ := p.labels.Resolve(tx.From)
	toLabel, _ := p.labels.Resolve(tx.To)

	symbol := tx.TokenSymbol
	if symbol == "" {
		symbol = chain.Symbol
	}
	token := tx.TokenName
	if token == "" {
		token = chain.Name
	}
	value := ScaleDown(tx.Value, TokenDecimals(tx.TokenDecimal))

	var valueUSD string
	if isNativeValue(tx) {
		valueUSD, _ = ToUSD(value, nativeUSD)
	}
	gas := GasCost(tx.GasUsed, tx.GasPrice)
	gasUSD, _ := ToUSD(gas, nativeUSD)

	timestamp := parseInt(tx.TimeStamp)
	poisoning := index.Detect(tx)

	description := Describe(DescribeInput{
		Type:      txType,
		Direction: direction,
		Value:     value,
		Symbol:    symbol,
		From:      tx.From,
		To:        tx.To,
		FromLabel: fromLabel,
		ToLabel:   toLabel,
		TokenName: tx.TokenName,
	})

	return domain.ParsedTransaction{
		Hash:            tx.Hash,
		Timestamp:       timestamp,
		Date:            time.Unix(timestamp, 0).UTC().Format(dateLayout),
		Type:            txType,
		Direction:       direction,
		Value:           value,
		ValueUSD:        valueUSD,
		Token:           token,
		TokenSymbol:     symbol,
		From:            tx.From,
		FromLabel:       fromLabel,
		To:              tx.To,
		ToLabel:         toLabel,
		GasUsed:         gas,
		GasUSD:          gasUSD,
		Status:          statusOf(tx.IsError),
		IsSpam:          txType == domain.TypeSpam || p.spam.IsSpam(tx),
		IsPoisoning:     poisoning.IsPoisoning,
		PoisoningTarget: poisoning.Target,
		Description:     description,
		Chain:           chain.Name,
		BlockNumber:     parseUint64(tx.BlockNumber),
		ExplorerURL:     chain.ExplorerTxURL(tx.Hash),
		Source:          tx.Source,
	}
}

// DirectionOf classifies a record relative to subject.
func DirectionOf(from, to, subject string) domain.Direction {
	subject = normalizeAddress(subject)
	fromSubject := normalizeAddress(from) == subject
	switch {
	case fromSubject && normalizeAddress(to) == subject:
		return domain.DirectionSelf
	case fromSubject:
		return domain.DirectionOut
	default:
		return domain.DirectionIn
	}
}

// Tally counts spam and poisoning flags across parsed records.
func Tally(parsed []domain.ParsedTransaction) (spam, poisoning int) {
	for _, tx := range parsed {
		if tx.IsSpam {
			spam++
		}
		if tx.IsPoisoning {
			poisoning++
		}
	}
	return spam, poisoning
}

// Summarize wraps parsed records with their aggregate counters.
func Summarize(address, chainKey string, parsed []domain.ParsedTransaction) domain.WalletSummary {
	spam, poisoning := Tally(parsed)
	if parsed == nil {
		parsed = []domain.ParsedTransaction{}
	}
	return domain.WalletSummary{
		Address:           address,
		Chain:             chainKey,
		TotalTransactions: len(parsed),
		SpamCount:         spam,
		PoisoningCount:    poisoning,
		Transactions:      parsed,
	}
}

// isNativeValue reports whether the record's value is denominated in the
// chain's native token, the only asset the unit price applies to.
func isNativeValue(tx domain.RawTransaction) bool {
	if tx.Source == domain.SourceFungible || tx.Source == domain.SourceNFT {
		return false
	}
	return tx.TokenSymbol == ""
}

func statusOf(isError string) domain.Status {
	switch strings.TrimSpace(isError) {
	case "", "0":
		return domain.StatusSuccess
	default:
		return domain.StatusFailed
	}
}

func parseInt(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func parseUint64(raw string) uint64 {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
