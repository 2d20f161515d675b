package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"walletRisk/internal/risk"
)

// ProtocolParams starts from risk.DefaultParams and applies any protocol.* overrides.
func ProtocolParams(v *viper.Viper) (risk.Params, error) {
	p := risk.DefaultParams()
	if v == nil {
		return p, nil
	}

	if v.IsSet("protocol.contract") {
		addr := v.GetString("protocol.contract")
		if !common.IsHexAddress(addr) {
			return risk.Params{}, fmt.Errorf("invalid protocol.contract %q", addr)
		}
		p.ProtocolContract = common.HexToAddress(addr)
	}

	selectors := map[string]*risk.Selector{
		"protocol.selectors.borrow":      &p.Selectors.Borrow,
		"protocol.selectors.repay":       &p.Selectors.Repay,
		"protocol.selectors.liquidation": &p.Selectors.Liquidation,
	}
	for key, dst := range selectors {
		if !v.IsSet(key) {
			continue
		}
		sel, err := risk.ParseSelector(v.GetString(key))
		if err != nil {
			return risk.Params{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = sel
	}

	floats := map[string]*float64{
		"protocol.weights.collateral":  &p.Weights.Collateral,
		"protocol.weights.borrowed":    &p.Weights.Borrowed,
		"protocol.weights.liquidation": &p.Weights.Liquidation,
		"protocol.weights.frequency":   &p.Weights.Frequency,
		"protocol.weights.repay":       &p.Weights.Repay,
		"protocol.collateral-min":      &p.CollateralMin,
		"protocol.collateral-max":      &p.CollateralMax,
		"protocol.max-borrowed-value":  &p.MaxBorrowedValue,
		"protocol.collateral-base":     &p.CollateralBase,
		"protocol.collateral-step":     &p.CollateralStep,
		"protocol.collateral-floor":    &p.CollateralFloor,
		"protocol.liquidation-base":    &p.LiquidationBase,
		"protocol.frequency-scale":     &p.FrequencyScale,
		"protocol.burst-bonus":         &p.BurstBonus,
		"protocol.high-volatility":     &p.HighVolatility,
		"protocol.low-volatility":      &p.LowVolatility,
		"protocol.high-multiplier":     &p.HighMultiplier,
		"protocol.low-multiplier":      &p.LowMultiplier,
	}
	for key, dst := range floats {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}

	if v.IsSet("protocol.max-liquidations") {
		p.MaxLiquidations = v.GetInt("protocol.max-liquidations")
	}
	if v.IsSet("protocol.burst-window-seconds") {
		p.BurstWindowSeconds = v.GetUint64("protocol.burst-window-seconds")
	}
	if v.IsSet("protocol.bound-raw-terms") {
		p.BoundRawTerms = v.GetBool("protocol.bound-raw-terms")
	}

	if err := p.Validate(); err != nil {
		return risk.Params{}, fmt.Errorf("protocol params: %w", err)
	}
	return p, nil
}
