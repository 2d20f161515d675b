package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"walletRisk/internal/batch"
	"walletRisk/internal/chain"
	"walletRisk/internal/config"
	"walletRisk/internal/market"
	"walletRisk/internal/metrics"
	"walletRisk/internal/oracle"
	"walletRisk/internal/risk"
	"walletRisk/internal/storage"
	"walletRisk/internal/storage/postgres"
)

func runScore(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadScore(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	wallets, err := storage.ReadWallets(cfg.Wallets)
	if err != nil {
		return err
	}

	scorer, err := risk.NewScorer(cfg.Protocol, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Serve(ctx, cfg.MetricsAddr, logger)

	var source batch.TransactionSource
	if cfg.In != "" {
		fileSource, err := storage.LoadFileSource(cfg.In)
		if err != nil {
			return err
		}
		logger.Info("loaded histories", zap.String("in", cfg.In), zap.Int("wallets", fileSource.Len()))
		source = fileSource
	} else {
		liveSource, closeSource, err := newEtherscanSource(ctx, cfg.Etherscan, logger)
		if err != nil {
			return err
		}
		defer closeSource()
		source = liveSource
	}

	priceOracle, closeOracle, err := newPriceOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeOracle()

	volatility := market.Static{Volatility: cfg.ETHVolatility, Set: cfg.VolatilitySet}

	sinks := []storage.ReportSink{
		storage.NewJsonlReports(cfg.Reports),
		storage.CSVReports{DataPath: cfg.WalletData, ScorePath: cfg.WalletScore},
	}
	runID := uuid.New()
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, postgres.ReportSink{Store: store, RunID: runID})
	}

	logger.Info("score start",
		zap.String("run_id", runID.String()),
		zap.String("wallets_file", cfg.Wallets),
		zap.Int("wallets", len(wallets)),
		zap.Int("workers", cfg.Workers),
		zap.Bool("market_signal", cfg.VolatilitySet),
		zap.Bool("bound_raw_terms", cfg.Protocol.BoundRawTerms),
	)

	runner := batch.NewScoreRunner(scorer, source, priceOracle, volatility, cfg.Workers, logger)
	outcomes, err := runner.Run(ctx, wallets)
	if err != nil {
		return err
	}
	if err := batch.Publish(ctx, outcomes, sinks...); err != nil {
		return err
	}

	var failed, low int
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
		case o.Report.LowConfidence:
			low++
		}
	}
	logger.Info("score complete",
		zap.String("run_id", runID.String()),
		zap.Int("wallets", len(outcomes)),
		zap.Int("failed", failed),
		zap.Int("low_confidence", low),
		zap.String("wallet_data", cfg.WalletData),
		zap.String("wallet_score", cfg.WalletScore),
	)
	return nil
}

// newPriceOracle prefers a static price, then Chainlink over RPC. Without either,
// borrow values are unavailable and reports are marked low confidence.
func newPriceOracle(ctx context.Context, cfg config.ScoreConfig, logger *zap.Logger) (risk.PriceOracle, func(), error) {
	if cfg.ETHPriceUSD > 0 {
		return oracle.Static{USDPerETH: cfg.ETHPriceUSD}, func() {}, nil
	}
	if cfg.RPCURL == "" {
		logger.Warn("no price source configured, borrow values will be unavailable")
		return nil, func() {}, nil
	}
	if !common.IsHexAddress(cfg.PriceFeed) {
		return nil, nil, fmt.Errorf("invalid price feed address %q", cfg.PriceFeed)
	}

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	if err := client.RequireChainID(ctx, chain.MainnetChainID); err != nil {
		client.Close()
		return nil, nil, err
	}
	return oracle.NewChainlink(client, common.HexToAddress(cfg.PriceFeed), logger), client.Close, nil
}
