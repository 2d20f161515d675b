package etherscan

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"walletRisk/internal/cache"
	"walletRisk/internal/metrics"
	"walletRisk/internal/model"
)

// SourceConfig controls caching and retries of the transaction source.
type SourceConfig struct {
	CacheTTL     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Source serves wallet histories from the cache, falling back to live API calls.
type Source struct {
	client *Client
	cache  cache.Cache
	cfg    SourceConfig
	logger *zap.Logger
}

func NewSource(client *Client, c cache.Cache, cfg SourceConfig, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Source{client: client, cache: c, cfg: cfg, logger: logger}
}

func cacheKey(address string) string {
	return "txlist:" + strings.ToLower(address)
}

// Fetch returns the wallet's transactions. Failures yield an empty result and are logged.
func (s *Source) Fetch(ctx context.Context, address string) []model.RawTransaction {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		s.logger.Warn("invalid wallet address", zap.String("wallet", address))
		metrics.FetchTotal.WithLabelValues(metrics.FetchInvalid).Inc()
		return nil
	}
	key := cacheKey(address)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache get failed", zap.String("wallet", address), zap.Error(err))
	} else if ok {
		var txs []model.RawTransaction
		if err := json.Unmarshal(data, &txs); err == nil {
			metrics.FetchTotal.WithLabelValues(metrics.FetchCached).Inc()
			return txs
		}
		s.logger.Warn("cache entry corrupt", zap.String("wallet", address), zap.Error(err))
	}

	var txs []model.RawTransaction
	var skipped []string
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		txs, skipped, err = s.client.TxList(ctx, address)
		if err != nil {
			s.logger.Warn("txlist fetch failed", zap.String("wallet", address), zap.Error(err))
		}
		return err
	})
	if err != nil {
		metrics.FetchTotal.WithLabelValues(metrics.FetchFailed).Inc()
		return nil
	}
	metrics.FetchTotal.WithLabelValues(metrics.FetchLive).Inc()

	for _, reason := range skipped {
		s.logger.Warn("skip malformed record", zap.String("wallet", address), zap.String("reason", reason))
	}
	metrics.SkippedRecords.Add(float64(len(skipped)))

	data, err := json.Marshal(txs)
	if err == nil {
		err = s.cache.Set(ctx, key, data, s.cfg.CacheTTL)
	}
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("wallet", address), zap.Error(err))
	}

	return txs
}
