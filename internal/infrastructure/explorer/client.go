package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"walletclear/internal/application"
	"walletclear/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL  = "https://api.etherscan.io/v2/api"
	defaultPageSize = 25
	defaultTimeout  = 15 * time.Second
)

type Config struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client reads wallet history from an Etherscan V2 compatible API. One base
// URL serves every chain through the chainid parameter.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid explorer url: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		httpClient: httpClient,
		tracer:     otel.Tracer("walletclear/explorer"),
	}, nil
}

type feed struct {
	action string
	source domain.SourceKind
}

var feeds = [...]feed{
	{action: "txlist", source: domain.SourceNative},
	{action: "tokentx", source: domain.SourceFungible},
	{action: "tokennfttx", source: domain.SourceNFT},
}

// FetchTransactions requests one page of the native, fungible and NFT feeds
// in parallel and merges them newest first. A failing feed is logged and
// treated as empty; an error is returned only when every feed fails.
func (c *Client) FetchTransactions(ctx context.Context, address string, chain domain.Chain, page int) ([]domain.RawTransaction, error) {
	if page <= 0 {
		page = 1
	}
	ctx, span := c.tracer.Start(ctx, "explorer.fetch_transactions", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chain.id", int64(chain.ChainID)),
		attribute.Int("page", page),
	)

	var (
		results [len(feeds)][]domain.RawTransaction
		errs    [len(feeds)]error
		group   errgroup.Group
	)
	for i, f := range feeds {
		group.Go(func() error {
			results[i], errs[i] = c.fetchFeed(ctx, chain.ChainID, f, address, page)
			return nil
		})
	}
	_ = group.Wait()

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		slog.Warn("explorer feed failed",
			"chain", chain.Key,
			"action", feeds[i].action,
			"page", page,
			"err", err,
		)
	}
	if failed == len(feeds) {
		err := fmt.Errorf("explorer unavailable: %w", errors.Join(errs[:]...))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	merged := application.MergeFeeds(results[0], results[1], results[2])
	span.SetAttributes(attribute.Int("transactions", len(merged)))
	return merged, nil
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) fetchFeed(ctx context.Context, chainID uint64, f feed, address string, page int) ([]domain.RawTransaction, error) {
	ctx, span := c.tracer.Start(ctx, "explorer."+f.action, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	params := url.Values{}
	params.Set("chainid", strconv.FormatUint(chainID, 10))
	params.Set("module", "account")
	params.Set("action", f.action)
	params.Set("address", address)
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(c.pageSize))
	params.Set("sort", "desc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	txs, err := c.get(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for i := range txs {
		txs[i].Source = f.source
	}
	span.SetAttributes(attribute.Int("rows", len(txs)))
	return txs, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]domain.RawTransaction, error) {
	endpoint := c.baseURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("explorer status %d", resp.StatusCode)
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode explorer response: %w", err)
	}
	return decodeResult(decoded)
}

func decodeResult(resp apiResponse) ([]domain.RawTransaction, error) {
	if resp.Status == "1" {
		var txs []domain.RawTransaction
		if err := json.Unmarshal(resp.Result, &txs); err != nil {
			return nil, fmt.Errorf("decode explorer result: %w", err)
		}
		return txs, nil
	}

	var text string
	if err := json.Unmarshal(resp.Result, &text); err == nil {
		if strings.Contains(strings.ToLower(text), "no transactions found") {
			return []domain.RawTransaction{}, nil
		}
		return nil, fmt.Errorf("explorer error: %s: %s", resp.Message, text)
	}
	if strings.Contains(strings.ToLower(resp.Message), "no transactions found") {
		return []domain.RawTransaction{}, nil
	}
	return nil, fmt.Errorf("explorer error: %s", resp.Message)
}
