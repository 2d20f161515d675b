// Package market supplies the optional ETH volatility signal.
package market

import (
	"context"
	"fmt"
	"math"
)

// Static reports a configured volatility. When Set is false no signal is available.
type Static struct {
	Volatility float64
	Set        bool
}

func (s Static) ETHVolatility(_ context.Context) (float64, bool, error) {
	if !s.Set {
		return 0, false, nil
	}
	if math.IsNaN(s.Volatility) || math.IsInf(s.Volatility, 0) || s.Volatility < 0 {
		return 0, false, fmt.Errorf("volatility %v out of range", s.Volatility)
	}
	return s.Volatility, true, nil
}
