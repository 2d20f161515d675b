// Package oracle converts borrowed wei amounts into USD.
package oracle

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/params"

	"walletRisk/internal/model"
)

// WeiToETH converts a wei amount to ether.
func WeiToETH(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	eth, _ := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether)).Float64()
	return eth
}

// Static prices every amount at a fixed ETH/USD rate.
type Static struct {
	USDPerETH float64
}

func (s Static) USDValue(_ context.Context, wei *big.Int, _ model.Moment) (float64, error) {
	if math.IsNaN(s.USDPerETH) || math.IsInf(s.USDPerETH, 0) || s.USDPerETH <= 0 {
		return 0, fmt.Errorf("static eth price %v not usable", s.USDPerETH)
	}
	return WeiToETH(wei) * s.USDPerETH, nil
}
