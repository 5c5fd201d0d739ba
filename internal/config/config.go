package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr               string
	ExplorerURL            string
	ExplorerAPIKey         string
	ExplorerPageSize       int
	ExplorerTimeout        time.Duration
	PriceURL               string
	PriceTimeout           time.Duration
	PriceCacheTTL          time.Duration
	SummaryCacheTTL        time.Duration
	RedisAddr              string
	DBDSN                  string
	DBPath                 string
	KafkaBrokers           []string
	KafkaTopicPrefix       string
	KafkaGroupID           string
	ChainKeys              []string
	OtelEndpoint           string
	LogLevel               string
	LogFile                string
	LogMaxSizeMB           int
	LogMaxBackups          int
	SpamDustThreshold      *big.Int
	PoisoningDustThreshold *big.Int
	SpamKeywords           []string
	SpamContracts          []string
	ParserWorkers          int
	RateLimit              int
	RateLimitWindow        time.Duration
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	pageSize, err := parseUintEnv(source, "EXPLORER_PAGE_SIZE", 25)
	if err != nil {
		return Config{}, err
	}
	if pageSize == 0 || pageSize > 10000 {
		return Config{}, fmt.Errorf("invalid EXPLORER_PAGE_SIZE: %d", pageSize)
	}
	explorerTimeout, err := parseDurationEnv(source, "EXPLORER_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	priceTimeout, err := parseDurationEnv(source, "PRICE_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	priceCacheTTL, err := parseDurationEnv(source, "PRICE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	summaryCacheTTL, err := parseDurationEnv(source, "SUMMARY_CACHE_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	logMaxSize, err := parseUintEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseUintEnv(source, "LOG_MAX_BACKUPS", 3)
	if err != nil {
		return Config{}, err
	}
	spamDust, err := parseBigEnv(source, "SPAM_DUST_THRESHOLD_WEI", "1000000000000")
	if err != nil {
		return Config{}, err
	}
	poisoningDust, err := parseBigEnv(source, "POISONING_DUST_THRESHOLD_WEI", "1000000000000000")
	if err != nil {
		return Config{}, err
	}
	workers, err := parseUintEnv(source, "PARSER_WORKERS", 0)
	if err != nil {
		return Config{}, err
	}
	rateLimit, err := parseUintEnv(source, "RATE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	rateLimitWindow, err := parseDurationEnv(source, "RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return Config{}, err
	}
	if rateLimitWindow <= 0 {
		return Config{}, errors.New("RATE_LIMIT_WINDOW must be positive")
	}

	httpAddr := ":8080"
	if raw, ok := source.Lookup("HTTP_ADDR"); ok && raw != "" {
		httpAddr = raw
	}

	explorerURL := lookupDefault(source, "EXPLORER_API_URL", "https://api.etherscan.io/v2/api")
	explorerKey, _ := source.Lookup("ETHERSCAN_API_KEY")
	priceURL := lookupDefault(source, "PRICE_API_URL", "https://api.coingecko.com/api/v3/simple/price")

	redisAddr, _ := source.Lookup("REDIS_ADDR")
	dbDSN, _ := source.Lookup("DB_DSN")
	dbPath := lookupDefault(source, "DB_PATH", "data/walletclear.db")

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	logLevel := lookupDefault(source, "LOG_LEVEL", "info")
	logFile, _ := source.Lookup("LOG_FILE")

	return Config{
		HTTPAddr:               httpAddr,
		ExplorerURL:            explorerURL,
		ExplorerAPIKey:         strings.TrimSpace(explorerKey),
		ExplorerPageSize:       int(pageSize),
		ExplorerTimeout:        explorerTimeout,
		PriceURL:               priceURL,
		PriceTimeout:           priceTimeout,
		PriceCacheTTL:          priceCacheTTL,
		SummaryCacheTTL:        summaryCacheTTL,
		RedisAddr:              strings.TrimSpace(redisAddr),
		DBDSN:                  strings.TrimSpace(dbDSN),
		DBPath:                 dbPath,
		KafkaBrokers:           parseList(source, "KAFKA_BROKERS"),
		KafkaTopicPrefix:       lookupDefault(source, "KAFKA_TOPIC_PREFIX", "walletclear-events"),
		KafkaGroupID:           lookupDefault(source, "KAFKA_GROUP_ID", "walletclear-alertlog"),
		ChainKeys:              parseList(source, "CHAIN_KEYS"),
		OtelEndpoint:           strings.TrimSpace(otelEndpoint),
		LogLevel:               logLevel,
		LogFile:                strings.TrimSpace(logFile),
		LogMaxSizeMB:           int(logMaxSize),
		LogMaxBackups:          int(logMaxBackups),
		SpamDustThreshold:      spamDust,
		PoisoningDustThreshold: poisoningDust,
		SpamKeywords:           parseList(source, "SPAM_KEYWORDS"),
		SpamContracts:          parseList(source, "SPAM_CONTRACTS"),
		ParserWorkers:          int(workers),
		RateLimit:              int(rateLimit),
		RateLimitWindow:        rateLimitWindow,
	}, nil
}

func lookupDefault(source EnvSource, key, defaultValue string) string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	return strings.TrimSpace(raw)
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return duration, nil
}

func parseBigEnv(source EnvSource, key string, defaultValue string) (*big.Int, error) {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultValue
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() <= 0 {
		return nil, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return value, nil
}

func parseList(source EnvSource, key string) []string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}
