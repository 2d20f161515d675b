package risk

import (
	"context"
	"math"
	"math/big"

	"walletRisk/internal/model"
)

// PriceOracle converts a wei amount into USD at a point in time.
type PriceOracle interface {
	USDValue(ctx context.Context, weiAmount *big.Int, at model.Moment) (float64, error)
}

// CollateralRatio is the simulated collateral ratio for a wallet with txCount
// protocol transactions. It never falls below the configured floor.
func CollateralRatio(txCount int, params Params) float64 {
	return math.Max(params.CollateralFloor, params.CollateralBase-params.CollateralStep*float64(txCount))
}

// LiquidationImpact returns base^count, saturating at math.MaxFloat64 so the
// value always survives JSON encoding.
func LiquidationImpact(count int, params Params) float64 {
	impact := 1.0
	for i := 0; i < count; i++ {
		if impact > math.MaxFloat64/params.LiquidationBase {
			return math.MaxFloat64
		}
		impact *= params.LiquidationBase
	}
	return impact
}

// Extract reduces classified transactions to a feature vector. The second
// return value is true when a borrow could not be priced.
func Extract(ctx context.Context, txs []model.ClassifiedTransaction, oracle PriceOracle, params Params) (model.WalletFeatureVector, bool) {
	var fv model.WalletFeatureVector
	lowConfidence := false

	for _, tx := range txs {
		if !tx.Type.Relevant() {
			continue
		}
		fv.TxCount++

		ts := tx.Tx.Timestamp
		if fv.TxCount == 1 || ts < fv.FirstTxTimestamp {
			fv.FirstTxTimestamp = ts
		}
		if ts > fv.LastTxTimestamp {
			fv.LastTxTimestamp = ts
		}

		switch tx.Type {
		case model.TxBorrow:
			fv.BorrowCount++
			usd, ok := borrowUSD(ctx, tx.Tx, oracle)
			if !ok {
				lowConfidence = true
			}
			fv.BorrowedValueUSD += usd
		case model.TxRepay:
			fv.RepayCount++
		case model.TxLiquidation:
			fv.LiquidationCount++
		}
	}

	fv.CollateralRatio = CollateralRatio(fv.TxCount, params)
	fv.RepayRatio = float64(fv.RepayCount) / float64(max(1, fv.BorrowCount))
	fv.LiquidationImpact = LiquidationImpact(fv.LiquidationCount, params)
	fv.BurstActivity = fv.TxCount > 1 && fv.LastTxTimestamp-fv.FirstTxTimestamp < params.BurstWindowSeconds

	return fv, lowConfidence
}

func borrowUSD(ctx context.Context, tx model.RawTransaction, oracle PriceOracle) (float64, bool) {
	if tx.Value == nil || tx.Value.Sign() == 0 {
		return 0, true
	}
	if oracle == nil {
		return 0, false
	}
	usd, err := oracle.USDValue(ctx, tx.Value, model.Moment{Timestamp: tx.Timestamp, BlockNumber: tx.BlockNumber})
	if err != nil || math.IsNaN(usd) || math.IsInf(usd, 0) || usd < 0 {
		return 0, false
	}
	return usd, true
}
