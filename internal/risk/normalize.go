package risk

import (
	"math"

	"walletRisk/internal/model"
)

// Normalize maps value onto [0,1] between minVal and maxVal, optionally inverted.
// A degenerate range (maxVal <= minVal) yields 0.
func Normalize(value, minVal, maxVal float64, inverse bool) float64 {
	if !(maxVal > minVal) {
		return 0
	}
	if math.IsNaN(value) {
		return 0
	}
	scaled := (value - minVal) / (maxVal - minVal)
	if inverse {
		scaled = 1 - scaled
	}
	return clampUnit(scaled)
}

// LogScale maps value onto [0,1] as log10(value+1)/log10(maxVal).
func LogScale(value, maxVal float64) float64 {
	if math.IsNaN(value) || value <= 0 || !(maxVal > 1) {
		return 0
	}
	return clampUnit(math.Log10(value+1) / math.Log10(maxVal))
}

// NormalizeFeatures applies the per-feature normalization table.
func NormalizeFeatures(fv model.WalletFeatureVector, params Params) model.NormalizedFeatureVector {
	norm := model.NormalizedFeatureVector{
		CollateralNorm: Normalize(fv.CollateralRatio, params.CollateralMin, params.CollateralMax, true),
		BorrowedNorm:   LogScale(fv.BorrowedValueUSD, params.MaxBorrowedValue),
		RepayNorm:      clampUnit(1 - fv.RepayRatio),
	}

	frequency := float64(fv.TxCount) / params.FrequencyScale
	if params.BoundRawTerms {
		maxImpact := LiquidationImpact(params.MaxLiquidations, params)
		norm.LiquidationNorm = Normalize(fv.LiquidationImpact, 1, maxImpact, false)
		norm.FrequencyNorm = clampUnit(frequency)
	} else {
		norm.LiquidationNorm = dropNaN(fv.LiquidationImpact)
		norm.FrequencyNorm = dropNaN(frequency)
	}
	return norm
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// dropNaN maps NaN and -Inf to 0 and +Inf to math.MaxFloat64. Large values
// still saturate the final clamp.
func dropNaN(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, -1):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	default:
		return v
	}
}
