package model

// Contribution keys used in RiskScoreReport.WeightedContributions.
const (
	FeatureCollateral  = "collateral"
	FeatureBorrowed    = "borrowed"
	FeatureLiquidation = "liquidation"
	FeatureFrequency   = "frequency"
	FeatureRepay       = "repay"
	FeatureBurst       = "burst"
)

// RiskScoreReport is the output of one scoring call.
type RiskScoreReport struct {
	WalletAddress         string                  `json:"wallet_address"`
	Score                 int                     `json:"score"`
	FeatureVector         WalletFeatureVector     `json:"feature_vector"`
	NormalizedVector      NormalizedFeatureVector `json:"normalized_vector"`
	WeightedContributions map[string]float64      `json:"weighted_contributions"`
	MarketMultiplier      float64                 `json:"market_multiplier"`
	LowConfidence         bool                    `json:"low_confidence"`
	Warnings              []string                `json:"warnings,omitempty"`
}
