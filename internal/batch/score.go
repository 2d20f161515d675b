package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"walletRisk/internal/metrics"
	"walletRisk/internal/model"
	"walletRisk/internal/risk"
	"walletRisk/internal/storage"
)

const errInvalidWallet = "invalid wallet address"

// ScoreRunner scores wallets concurrently. Outcomes keep the input order.
type ScoreRunner struct {
	scorer  *risk.Scorer
	source  TransactionSource
	oracle  risk.PriceOracle
	signal  risk.MarketSignal
	workers int
	logger  *zap.Logger
}

func NewScoreRunner(scorer *risk.Scorer, source TransactionSource, oracle risk.PriceOracle, signal risk.MarketSignal, workers int, logger *zap.Logger) *ScoreRunner {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreRunner{
		scorer:  scorer,
		source:  source,
		oracle:  oracle,
		signal:  signal,
		workers: workers,
		logger:  logger,
	}
}

// Run returns one outcome per input wallet. It fails only when ctx is cancelled.
func (r *ScoreRunner) Run(ctx context.Context, wallets []string) ([]model.ScoreOutcome, error) {
	if r.scorer == nil {
		return nil, fmt.Errorf("scorer is nil")
	}
	if r.source == nil {
		return nil, fmt.Errorf("transaction source is nil")
	}

	outcomes := make([]model.ScoreOutcome, len(wallets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, wallet := range wallets {
		i, wallet := i, wallet
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome := r.scoreOne(gctx, wallet)
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("score run complete", zap.Int("wallets", len(wallets)))
	return outcomes, nil
}

func (r *ScoreRunner) scoreOne(ctx context.Context, wallet string) model.ScoreOutcome {
	address := strings.TrimSpace(wallet)
	if !common.IsHexAddress(address) {
		r.logger.Warn("skip wallet", zap.String("wallet", address), zap.String("reason", errInvalidWallet))
		return model.ScoreOutcome{
			WalletAddress: address,
			Err:           &model.ScoreError{WalletAddress: address, Error: errInvalidWallet},
		}
	}

	txs := r.source.Fetch(ctx, address)
	report := r.scorer.Score(ctx, address, txs, r.oracle, r.signal)
	metrics.ObserveReport(report.Score, report.LowConfidence)

	return model.ScoreOutcome{WalletAddress: address, Report: &report}
}

// Publish writes outcomes to every sink in order, stopping at the first failure.
func Publish(ctx context.Context, outcomes []model.ScoreOutcome, sinks ...storage.ReportSink) error {
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.PutOutcomes(ctx, outcomes); err != nil {
			return fmt.Errorf("publish outcomes: %w", err)
		}
	}
	return nil
}
