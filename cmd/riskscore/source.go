package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"walletRisk/internal/cache"
	"walletRisk/internal/config"
	"walletRisk/internal/etherscan"
)

// newEtherscanSource builds the live history source and its cache.
func newEtherscanSource(ctx context.Context, cfg config.EtherscanConfig, logger *zap.Logger) (*etherscan.Source, func(), error) {
	if cfg.APIKey == "" {
		logger.Warn("no etherscan api key configured, requests are heavily rate limited")
	}

	var store cache.Cache = cache.NewMemory()
	closeFn := func() {}
	if cfg.RedisURL != "" {
		redisCache, closeRedis, err := cache.DialRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisCache
		closeFn = func() {
			if err := closeRedis(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
		}
	}

	client := etherscan.NewClient(etherscan.ClientConfig{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
		Interval: cfg.Interval,
	})
	source := etherscan.NewSource(client, store, etherscan.SourceConfig{
		CacheTTL:     cfg.CacheTTL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	return source, closeFn, nil
}
