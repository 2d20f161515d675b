package risk

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"walletRisk/internal/model"
)

// MarketSignal supplies the current ETH volatility in percent. ok is false
// when no signal is available.
type MarketSignal interface {
	ETHVolatility(ctx context.Context) (volatility float64, ok bool, err error)
}

// Scorer runs the scoring pipeline for a single wallet. It holds only
// configuration and is safe for concurrent use.
type Scorer struct {
	params Params
	logger *zap.Logger
}

// NewScorer validates params and builds a Scorer.
func NewScorer(params Params, logger *zap.Logger) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{params: params, logger: logger}, nil
}

// Params returns the scorer configuration.
func (s *Scorer) Params() Params {
	return s.params
}

// Score classifies, extracts, normalizes and aggregates txs into a report.
// It never fails: degenerate input produces a valid score.
func (s *Scorer) Score(ctx context.Context, wallet string, txs []model.RawTransaction, oracle PriceOracle, signal MarketSignal) model.RiskScoreReport {
	classified, warnings := ClassifyAll(txs, s.params)
	for _, w := range warnings {
		s.logger.Warn("skip transaction", zap.String("wallet", wallet), zap.String("reason", w))
	}

	fv, lowConfidence := Extract(ctx, classified, oracle, s.params)
	if lowConfidence {
		warnings = append(warnings, "borrow value unavailable from price oracle")
	}

	volatility, ok := 0.0, false
	if signal != nil {
		v, found, err := signal.ETHVolatility(ctx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("market signal: %v", err))
		} else {
			volatility, ok = v, found
		}
	}
	multiplier := MarketMultiplier(volatility, ok, s.params)

	report := BuildReport(wallet, fv, multiplier, s.params)
	report.LowConfidence = lowConfidence
	report.Warnings = warnings

	s.logger.Debug("wallet scored",
		zap.String("wallet", report.WalletAddress),
		zap.Int("score", report.Score),
		zap.Int("tx_count", fv.TxCount),
		zap.Int("skipped", len(txs)-len(classified)),
		zap.Float64("market_multiplier", multiplier),
		zap.Bool("low_confidence", lowConfidence),
	)

	return report
}

// BuildReport normalizes and aggregates a feature vector.
func BuildReport(wallet string, fv model.WalletFeatureVector, multiplier float64, params Params) model.RiskScoreReport {
	norm := NormalizeFeatures(fv, params)
	score, contributions := Aggregate(norm, fv.BurstActivity, multiplier, params)
	return model.RiskScoreReport{
		WalletAddress:         strings.TrimSpace(wallet),
		Score:                 score,
		FeatureVector:         fv,
		NormalizedVector:      norm,
		WeightedContributions: contributions,
		MarketMultiplier:      multiplier,
	}
}
