package risk

import (
	"math"

	"walletRisk/internal/model"
)

const (
	MinScore = 0
	MaxScore = 1000
)

// MarketMultiplier picks the market adjustment from ETH volatility in percent.
// Without a signal the multiplier is 1.
func MarketMultiplier(volatility float64, ok bool, params Params) float64 {
	if !ok || math.IsNaN(volatility) {
		return 1
	}
	switch {
	case volatility > params.HighVolatility:
		return params.HighMultiplier
	case volatility < params.LowVolatility:
		return params.LowMultiplier
	default:
		return 1
	}
}

// Aggregate combines normalized terms into an integer score in [0,1000] and
// returns the weighted contribution of each term.
func Aggregate(norm model.NormalizedFeatureVector, burst bool, multiplier float64, params Params) (int, map[string]float64) {
	contributions := map[string]float64{
		model.FeatureCollateral:  weighted(params.Weights.Collateral, norm.CollateralNorm),
		model.FeatureBorrowed:    weighted(params.Weights.Borrowed, norm.BorrowedNorm),
		model.FeatureLiquidation: weighted(params.Weights.Liquidation, norm.LiquidationNorm),
		model.FeatureFrequency:   weighted(params.Weights.Frequency, norm.FrequencyNorm),
		model.FeatureRepay:       weighted(params.Weights.Repay, norm.RepayNorm),
		model.FeatureBurst:       0,
	}
	if burst {
		contributions[model.FeatureBurst] = params.BurstBonus
	}

	var raw float64
	for _, key := range []string{
		model.FeatureCollateral,
		model.FeatureBorrowed,
		model.FeatureLiquidation,
		model.FeatureFrequency,
		model.FeatureRepay,
		model.FeatureBurst,
	} {
		raw += contributions[key]
	}

	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		multiplier = 1
	}
	return toScore(raw * multiplier), contributions
}

func weighted(weight, term float64) float64 {
	if weight == 0 || math.IsNaN(term) {
		return 0
	}
	return weight * term
}

func toScore(adjusted float64) int {
	if math.IsNaN(adjusted) {
		return MinScore
	}
	scaled := math.Round(adjusted * MaxScore)
	if scaled <= MinScore {
		return MinScore
	}
	if scaled >= MaxScore {
		return MaxScore
	}
	return int(scaled)
}
