package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletRisk/internal/batch"
	"walletRisk/internal/config"
	"walletRisk/internal/metrics"
	"walletRisk/internal/storage"
	"walletRisk/internal/storage/postgres"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	wallets, err := storage.ReadWallets(cfg.Wallets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Serve(ctx, cfg.MetricsAddr, logger)

	source, closeSource, err := newEtherscanSource(ctx, cfg.Etherscan, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var stateStore batch.StateStore = &batch.FileStateStore{Path: cfg.StateFile}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		stateStore = &batch.DBStateStore{Backend: store, Name: cfg.StateName}
	}

	runner := batch.NewFetchRunner(batch.FetchConfig{BatchSize: cfg.BatchSize}, source, storage.NewJsonlHistories(cfg.Out), stateStore, logger)

	logger.Info("fetch start",
		zap.String("wallets_file", cfg.Wallets),
		zap.Int("wallets", len(wallets)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("redis_cache", cfg.Etherscan.RedisURL != ""),
		zap.Duration("interval", cfg.Etherscan.Interval),
	)

	return runner.Run(ctx, wallets)
}
