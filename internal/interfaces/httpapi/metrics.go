package httpapi

import (
	"sync"
	"time"

	"walletclear/internal/domain"
	"walletclear/internal/streaming"
)

type Metrics struct {
	mu               sync.RWMutex
	startTime        time.Time
	analyses         uint64
	cacheHits        uint64
	analyzeErrs      uint64
	rateLimited      uint64
	transactions     uint64
	spamFlagged      uint64
	poisoningFlagged uint64
	lastElapsed      time.Duration
	chainCount       map[string]uint64
	summaryEvents    uint64
	poisoningAlerts  uint64
	kafkaMessages    uint64
	kafkaDecodeErrs  uint64
	kafkaCommitErrs  uint64
	kafkaFetchErrs   uint64
	kafkaLastTopic   string
	kafkaLastOffset  int64
	kafkaLastLag     time.Duration
	kafkaMaxLag      time.Duration
	kafkaTopicCount  map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime:       time.Now(),
		chainCount:      make(map[string]uint64),
		kafkaTopicCount: make(map[string]uint64),
	}
}

// OnAnalyzed records a finished wallet analysis.
func (m *Metrics) OnAnalyzed(chain string, summary domain.WalletSummary, elapsed time.Duration, cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses++
	if cached {
		m.cacheHits++
	}
	m.transactions += uint64(summary.TotalTransactions)
	m.spamFlagged += uint64(summary.SpamCount)
	m.poisoningFlagged += uint64(summary.PoisoningCount)
	m.lastElapsed = elapsed
	m.chainCount[chain]++
}

// OnAlert records an event reported by the alert consumer.
func (m *Metrics) OnAlert(msg streaming.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg.Type {
	case streaming.MessageTypePoisoning:
		m.poisoningAlerts++
	case streaming.MessageTypeSummary:
		m.summaryEvents++
	}
}

func (m *Metrics) IncAnalyzeErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzeErrs++
}

func (m *Metrics) IncRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

func (m *Metrics) IncKafkaDecodeErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kafkaDecodeErrs++
}

func (m *Metrics) IncKafkaCommitErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kafkaCommitErrs++
}

func (m *Metrics) IncKafkaFetchErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kafkaFetchErrs++
}

func (m *Metrics) ObserveKafkaMessage(topic string, offset int64, ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kafkaMessages++
	m.kafkaLastTopic = topic
	m.kafkaLastOffset = offset
	if !ts.IsZero() {
		lag := time.Since(ts)
		m.kafkaLastLag = lag
		if lag > m.kafkaMaxLag {
			m.kafkaMaxLag = lag
		}
	}
	if topic != "" {
		m.kafkaTopicCount[topic]++
	}
}

type Snapshot struct {
	StartTime        time.Time
	Analyses         uint64
	CacheHits        uint64
	AnalyzeErrs      uint64
	RateLimited      uint64
	Transactions     uint64
	SpamFlagged      uint64
	PoisoningFlagged uint64
	LastElapsed      time.Duration
	ChainCount       map[string]uint64
	SummaryEvents    uint64
	PoisoningAlerts  uint64
	KafkaMessages    uint64
	KafkaDecodeErrs  uint64
	KafkaCommitErrs  uint64
	KafkaFetchErrs   uint64
	KafkaLastTopic   string
	KafkaLastOffset  int64
	KafkaLastLag     time.Duration
	KafkaMaxLag      time.Duration
	KafkaTopicCount  map[string]uint64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		StartTime:        m.startTime,
		Analyses:         m.analyses,
		CacheHits:        m.cacheHits,
		AnalyzeErrs:      m.analyzeErrs,
		RateLimited:      m.rateLimited,
		Transactions:     m.transactions,
		SpamFlagged:      m.spamFlagged,
		PoisoningFlagged: m.poisoningFlagged,
		LastElapsed:      m.lastElapsed,
		ChainCount:       copyCounts(m.chainCount),
		SummaryEvents:    m.summaryEvents,
		PoisoningAlerts:  m.poisoningAlerts,
		KafkaMessages:    m.kafkaMessages,
		KafkaDecodeErrs:  m.kafkaDecodeErrs,
		KafkaCommitErrs:  m.kafkaCommitErrs,
		KafkaFetchErrs:   m.kafkaFetchErrs,
		KafkaLastTopic:   m.kafkaLastTopic,
		KafkaLastOffset:  m.kafkaLastOffset,
		KafkaLastLag:     m.kafkaLastLag,
		KafkaMaxLag:      m.kafkaMaxLag,
		KafkaTopicCount:  copyCounts(m.kafkaTopicCount),
	}
}

func copyCounts(source map[string]uint64) map[string]uint64 {
	if len(source) == 0 {
		return nil
	}
	clone := make(map[string]uint64, len(source))
	for key, value := range source {
		clone[key] = value
	}
	return clone
}
