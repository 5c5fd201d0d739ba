package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/config"
	"walletclear/internal/domain"
	"walletclear/internal/infrastructure/logging"
	"walletclear/internal/infrastructure/telemetry"
	"walletclear/internal/interfaces/httpapi"
	"walletclear/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	batchSize     = 100
	flushInterval = 500 * time.Millisecond
)

var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logCloser, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		slog.Error("logger init error", "err", err)
	} else if logCloser != nil {
		defer logCloser.Close()
	}

	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required for alert streaming")
		os.Exit(1)
	}
	chains, err := selectChains(cfg.ChainKeys)
	if err != nil {
		slog.Error("chain selection error", "err", err)
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "walletclear-alertlog", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := httpapi.NewMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", httpapi.MetricsHandler(metrics))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics server listening", "addr", cfg.HTTPAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()

	var wg sync.WaitGroup
	readers := make([]*kafka.Reader, 0, len(chains))
	for _, chain := range chains {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    streaming.Topic(cfg.KafkaTopicPrefix, chain.ChainID),
			MinBytes: 1,
			MaxBytes: 10e6,
		})
		readers = append(readers, reader)

		wg.Add(1)
		go func(chain domain.Chain, r *kafka.Reader) {
			defer wg.Done()
			consumeStream(ctx, r, metrics, chain)
		}(chain, reader)
	}

	slog.Info("alert streaming started", "topics", len(chains), "group", cfg.KafkaGroupID)
	<-ctx.Done()
	for _, reader := range readers {
		_ = reader.Close()
	}
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func selectChains(keys []string) ([]domain.Chain, error) {
	if len(keys) == 0 {
		return domain.SupportedChains(), nil
	}
	chains := make([]domain.Chain, 0, len(keys))
	for _, key := range keys {
		chain, ok := domain.LookupChain(key)
		if !ok {
			return nil, errors.New("unsupported chain in CHAIN_KEYS: " + key)
		}
		chains = append(chains, chain)
	}
	return chains, nil
}

func consumeStream(ctx context.Context, reader *kafka.Reader, metrics *httpapi.Metrics, chain domain.Chain) {
	tracer := otel.Tracer("walletclear/alertlog")
	batch := application.NewAlertBatch(metrics)

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, flushInterval)
		message, err := reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				if err := batch.Flush(ctx, reader); err != nil {
					metrics.IncKafkaCommitErr()
					slog.Error("alert batch flush error", "chain", chain.Key, "err", err)
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			metrics.IncKafkaFetchErr()
			slog.Error("kafka fetch error", "chain", chain.Key, "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		metrics.ObserveKafkaMessage(message.Topic, message.Offset, message.Time)

		decoded, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Warn("message decode error", "chain", chain.Key, "offset", message.Offset, "err", err)
			metrics.IncKafkaDecodeErr()
			batch.Skip(message)
			continue
		}
		if decoded.ChainID != chain.ChainID {
			slog.Warn("unexpected chain id on topic", "topic", message.Topic, "chain_id", decoded.ChainID)
		}

		messageCtx := telemetry.ExtractKafkaHeaders(ctx, message.Headers)
		if !trace.SpanContextFromContext(messageCtx).IsValid() && decoded.TraceID != "" {
			if ctxWithTrace, ok := telemetry.ContextWithTraceID(messageCtx, decoded.TraceID); ok {
				messageCtx = ctxWithTrace
			}
		}
		_, span := tracer.Start(messageCtx, "alertlog.process_message", trace.WithSpanKind(trace.SpanKindConsumer))
		span.SetAttributes(
			attribute.String("message.type", string(decoded.Type)),
			attribute.Int64("chain.id", int64(decoded.ChainID)),
		)
		if decoded.TxHash != "" {
			span.SetAttributes(attribute.String("tx.hash", decoded.TxHash))
		}
		batch.Add(decoded, message)
		span.End()

		if batch.Len() >= batchSize {
			if err := batch.Flush(ctx, reader); err != nil {
				metrics.IncKafkaCommitErr()
				slog.Error("alert batch flush error", "chain", chain.Key, "err", err)
			}
		}
	}
}
