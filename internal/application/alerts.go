package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"walletclear/internal/streaming"

	"github.com/segmentio/kafka-go"
)

type Committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type AlertObserver interface {
	OnAlert(msg streaming.Message)
}

// AlertBatch buffers consumed wallet events and commits their offsets together
// once every event has been reported.
type AlertBatch struct {
	events    []streaming.Message
	messages  []kafka.Message
	poisoning int
	observer  AlertObserver
}

func NewAlertBatch(observer AlertObserver) *AlertBatch {
	return &AlertBatch{observer: observer}
}

func (b *AlertBatch) Add(msg streaming.Message, kafkaMsg kafka.Message) {
	b.events = append(b.events, msg)
	b.messages = append(b.messages, kafkaMsg)
	if msg.Type == streaming.MessageTypePoisoning {
		b.poisoning++
	}
}

// Skip queues an offset for commit without reporting an event, for payloads
// that could not be decoded.
func (b *AlertBatch) Skip(kafkaMsg kafka.Message) {
	b.messages = append(b.messages, kafkaMsg)
}

func (b *AlertBatch) Len() int {
	return len(b.messages)
}

func (b *AlertBatch) Flush(ctx context.Context, committer Committer) error {
	if b.Len() == 0 {
		return nil
	}
	start := time.Now()

	for _, event := range b.events {
		ReportAlert(event)
		if b.observer != nil {
			b.observer.OnAlert(event)
		}
	}

	if err := committer.CommitMessages(ctx, b.messages...); err != nil {
		return fmt.Errorf("failed to commit kafka messages: %w", err)
	}

	slog.Debug("flushed alert batch",
		"count", b.Len(),
		"events", len(b.events),
		"poisoning", b.poisoning,
		"duration", time.Since(start),
	)
	b.Reset()
	return nil
}

func (b *AlertBatch) Reset() {
	b.events = b.events[:0]
	b.messages = b.messages[:0]
	b.poisoning = 0
}

// ReportAlert logs a poisoning event at warn level and a summary at info level.
func ReportAlert(msg streaming.Message) {
	switch msg.Type {
	case streaming.MessageTypePoisoning:
		slog.Warn("address poisoning detected",
			"chain", msg.Chain,
			"address", msg.Address,
			"tx_hash", msg.TxHash,
			"attacker", msg.From,
			"impersonates", msg.PoisoningTarget,
			"value", msg.Value,
			"trace_id", msg.TraceID,
		)
	case streaming.MessageTypeSummary:
		slog.Info("wallet summary",
			"chain", msg.Chain,
			"address", msg.Address,
			"total", msg.Total,
			"spam", msg.SpamCount,
			"poisoning", msg.PoisoningCount,
			"trace_id", msg.TraceID,
		)
	default:
		slog.Debug("ignored event", "type", msg.Type, "chain_id", msg.ChainID)
	}
}
