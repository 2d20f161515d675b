package model

// WalletFeatureVector is derived per scoring call from classified transactions.
type WalletFeatureVector struct {
	TxCount           int     `json:"tx_count"`
	BorrowCount       int     `json:"borrow_count"`
	RepayCount        int     `json:"repay_count"`
	LiquidationCount  int     `json:"liquidation_count"`
	CollateralRatio   float64 `json:"collateral_ratio"`
	BorrowedValueUSD  float64 `json:"borrowed_value_usd"`
	RepayRatio        float64 `json:"repay_ratio"`
	LiquidationImpact float64 `json:"liquidation_impact"`
	FirstTxTimestamp  uint64  `json:"first_tx_timestamp"`
	LastTxTimestamp   uint64  `json:"last_tx_timestamp"`
	BurstActivity     bool    `json:"burst_activity"`
}

// NormalizedFeatureVector holds the per-feature terms fed to the weighted sum.
type NormalizedFeatureVector struct {
	CollateralNorm  float64 `json:"collateral_norm"`
	BorrowedNorm    float64 `json:"borrowed_norm"`
	LiquidationNorm float64 `json:"liquidation_norm"`
	FrequencyNorm   float64 `json:"frequency_norm"`
	RepayNorm       float64 `json:"repay_norm"`
}
