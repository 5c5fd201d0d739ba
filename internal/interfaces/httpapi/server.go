package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/config"
	"walletclear/internal/domain"
)

const maxRequestBody = 1 << 16

type Analyzer interface {
	Analyze(ctx context.Context, req application.AnalyzeRequest) (domain.WalletSummary, error)
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type Server struct {
	cfg       config.Config
	analyzer  Analyzer
	store     application.SummaryReader
	limiter   *RateLimiter
	metrics   *Metrics
	buildInfo BuildInfo
}

func NewServer(cfg config.Config, analyzer Analyzer, store application.SummaryReader, metrics *Metrics, buildInfo BuildInfo) (*Server, error) {
	if analyzer == nil || store == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		cfg:       cfg,
		analyzer:  analyzer,
		store:     store,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow),
		metrics:   metrics,
		buildInfo: buildInfo,
	}, nil
}

func (s *Server) MetricsObserver() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/transactions", s.handleAnalyze)
	mux.HandleFunc("/summaries", s.handleSummaries)
	mux.HandleFunc("/summaries/latest", s.handleLatestSummary)
	mux.HandleFunc("/flagged", s.handleFlagged)
	mux.HandleFunc("/chains", s.handleChains)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/version", s.handleVersion)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "db not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.Allow(ClientIP(r)) {
		s.metrics.IncRateLimited()
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.RateLimitWindow.Seconds())))
		respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req application.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.metrics.IncAnalyzeErr()
		switch {
		case errors.Is(err, application.ErrInvalidAddress),
			errors.Is(err, application.ErrUnsupportedChain),
			errors.Is(err, application.ErrInvalidPage):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("wallet analysis failed", "address", req.Address, "chain", req.Chain, "err", err)
			respondError(w, http.StatusInternalServerError, "failed to fetch transactions")
		}
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.store.QuerySummaries(r.Context(), application.SummaryQueryFilter{
		Address: strings.ToLower(r.URL.Query().Get("address")),
		Chain:   strings.ToLower(r.URL.Query().Get("chain")),
		Limit:   limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleLatestSummary(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(r.URL.Query().Get("address"))
	if address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}
	chain := strings.ToLower(r.URL.Query().Get("chain"))
	if chain == "" {
		chain = "ethereum"
	}
	summary, ok, err := s.store.LatestSummary(r.Context(), address, chain)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "no summary stored")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFlagged(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	poisoningOnly := false
	if raw := r.URL.Query().Get("poisoning"); raw != "" {
		poisoningOnly, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid poisoning")
			return
		}
	}
	flagged, err := s.store.QueryFlagged(r.Context(), application.FlaggedQueryFilter{
		Address:       strings.ToLower(r.URL.Query().Get("address")),
		Chain:         strings.ToLower(r.URL.Query().Get("chain")),
		PoisoningOnly: poisoningOnly,
		Limit:         limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, flagged)
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.SupportedChains())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeMetrics(w, s.metrics.Snapshot())
}

// MetricsHandler serves m in Prometheus text format for processes that do not
// run the full API.
func MetricsHandler(m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMetrics(w, m.Snapshot())
	})
}

func writeMetrics(w http.ResponseWriter, snap Snapshot) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	fmt.Fprintf(w, "walletclear_uptime_seconds %.0f\n", time.Since(snap.StartTime).Seconds())
	fmt.Fprintf(w, "walletclear_analyses_total %d\n", snap.Analyses)
	fmt.Fprintf(w, "walletclear_cache_hits_total %d\n", snap.CacheHits)
	fmt.Fprintf(w, "walletclear_analyze_errors_total %d\n", snap.AnalyzeErrs)
	fmt.Fprintf(w, "walletclear_rate_limited_total %d\n", snap.RateLimited)
	fmt.Fprintf(w, "walletclear_transactions_total %d\n", snap.Transactions)
	fmt.Fprintf(w, "walletclear_spam_flagged_total %d\n", snap.SpamFlagged)
	fmt.Fprintf(w, "walletclear_poisoning_flagged_total %d\n", snap.PoisoningFlagged)
	fmt.Fprintf(w, "walletclear_last_analysis_seconds %.3f\n", snap.LastElapsed.Seconds())
	for _, chain := range sortedKeys(snap.ChainCount) {
		fmt.Fprintf(w, "walletclear_chain_analyses_total{chain=%q} %d\n", chain, snap.ChainCount[chain])
	}
	fmt.Fprintf(w, "walletclear_summary_events_total %d\n", snap.SummaryEvents)
	fmt.Fprintf(w, "walletclear_poisoning_alerts_total %d\n", snap.PoisoningAlerts)
	fmt.Fprintf(w, "walletclear_kafka_messages_total %d\n", snap.KafkaMessages)
	fmt.Fprintf(w, "walletclear_kafka_decode_errors_total %d\n", snap.KafkaDecodeErrs)
	fmt.Fprintf(w, "walletclear_kafka_commit_errors_total %d\n", snap.KafkaCommitErrs)
	fmt.Fprintf(w, "walletclear_kafka_fetch_errors_total %d\n", snap.KafkaFetchErrs)
	fmt.Fprintf(w, "walletclear_kafka_last_offset %d\n", snap.KafkaLastOffset)
	fmt.Fprintf(w, "walletclear_kafka_last_lag_seconds %.3f\n", snap.KafkaLastLag.Seconds())
	fmt.Fprintf(w, "walletclear_kafka_max_lag_seconds %.3f\n", snap.KafkaMaxLag.Seconds())
	for _, topic := range sortedKeys(snap.KafkaTopicCount) {
		fmt.Fprintf(w, "walletclear_kafka_topic_messages_total{topic=%q} %d\n", topic, snap.KafkaTopicCount[topic])
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func parseLimit(r *http.Request) (int, error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return 0, errors.New("invalid limit")
		}
		return value, nil
	}
	return 100, nil
}

func sortedKeys(counts map[string]uint64) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
