package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletclear/internal/bootstrap"
	"walletclear/internal/config"
	"walletclear/internal/infrastructure/logging"
	"walletclear/internal/infrastructure/telemetry"
	"walletclear/internal/interfaces/httpapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

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

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "walletclear", version, cfg.OtelEndpoint)
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

	metrics := httpapi.NewMetrics()
	wallet, err := bootstrap.NewWallet(cfg, bootstrap.Options{Persist: true, Observer: metrics})
	if err != nil {
		slog.Error("wallet service error", "err", err)
		os.Exit(1)
	}
	defer wallet.Close()

	httpServer, err := httpapi.NewServer(cfg, wallet.Service, wallet.Store, metrics, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("http server listening",
			"addr", cfg.HTTPAddr,
			"storage", wallet.Store.Kind(),
			"redis", cfg.RedisAddr != "",
			"kafka", len(cfg.KafkaBrokers) > 0,
			"rate_limit", cfg.RateLimit,
		)
		if err := httpServer.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}
