package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"walletclear/internal/domain"
	"walletclear/internal/infrastructure/telemetry"
	"walletclear/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTopicPrefix = "walletclear-events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	prefix string
	now    func() time.Time
}

type ProducerConfig struct {
	Brokers     []string
	TopicPrefix string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           500 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newProducer(writer, cfg.TopicPrefix), nil
}

func newProducer(writer messageWriter, prefix string) *Producer {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultTopicPrefix
	}
	return &Producer{writer: writer, prefix: prefix, now: time.Now}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishSummary emits one summary event keyed by wallet address.
func (p *Producer) PublishSummary(ctx context.Context, chain domain.Chain, summary domain.WalletSummary) error {
	ctx, span := otel.Tracer("walletclear/kafka").Start(ctx, "kafka.publish_summary", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	address := strings.ToLower(summary.Address)
	span.SetAttributes(
		attribute.Int64("chain.id", int64(chain.ChainID)),
		attribute.String("wallet.address", address),
	)

	msg, err := p.message(ctx, chain.ChainID, address, streaming.Message{
		Type:           streaming.MessageTypeSummary,
		ChainID:        chain.ChainID,
		TraceID:        telemetry.TraceIDFromContext(ctx),
		Address:        address,
		Chain:          chain.Key,
		Total:          summary.TotalTransactions,
		SpamCount:      summary.SpamCount,
		PoisoningCount: summary.PoisoningCount,
		Timestamp:      p.now().Unix(),
	})
	if err == nil {
		err = p.writer.WriteMessages(ctx, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// PublishPoisoning emits one event per poisoning record in a single write.
func (p *Producer) PublishPoisoning(ctx context.Context, chain domain.Chain, address string, txs []domain.ParsedTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("walletclear/kafka").Start(ctx, "kafka.publish_poisoning", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	address = strings.ToLower(address)
	span.SetAttributes(
		attribute.Int64("chain.id", int64(chain.ChainID)),
		attribute.String("wallet.address", address),
		attribute.Int("poisoning.count", len(txs)),
	)

	traceID := telemetry.TraceIDFromContext(ctx)
	messages := make([]kafka.Message, 0, len(txs))
	for _, tx := range txs {
		msg, err := p.message(ctx, chain.ChainID, address, streaming.Message{
			Type:            streaming.MessageTypePoisoning,
			ChainID:         chain.ChainID,
			TraceID:         traceID,
			Address:         address,
			Chain:           chain.Key,
			TxHash:          tx.Hash,
			From:            strings.ToLower(tx.From),
			To:              strings.ToLower(tx.To),
			PoisoningTarget: tx.PoisoningTarget,
			Value:           tx.Value,
			Timestamp:       tx.Timestamp,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		messages = append(messages, msg)
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *Producer) message(ctx context.Context, chainID uint64, key string, event streaming.Message) (kafka.Message, error) {
	payload, err := streaming.Encode(event)
	if err != nil {
		return kafka.Message{}, err
	}
	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(ctx, &headers)
	return kafka.Message{
		Topic:   streaming.Topic(p.prefix, chainID),
		Key:     []byte(key),
		Value:   payload,
		Headers: headers,
	}, nil
}
