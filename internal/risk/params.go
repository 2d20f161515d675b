package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// CompoundV2Comptroller is the default protocol contract.
	CompoundV2Comptroller = "0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B"

	BorrowSelectorHex      = "0xc5ebeaec"
	RepaySelectorHex       = "0x0e752702"
	LiquidationSelectorHex = "0xefef39a1"

	weightSumTolerance = 1e-9
)

// Selector is the leading 4 bytes of transaction input data.
type Selector [4]byte

// ParseSelector decodes a 0x-prefixed 4 byte method selector.
func ParseSelector(input string) (Selector, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", input, err)
	}
	if len(data) != 4 {
		return Selector{}, fmt.Errorf("invalid selector length %q", input)
	}
	var sel Selector
	copy(sel[:], data)
	return sel, nil
}

// Hex returns the 0x-prefixed selector.
func (s Selector) Hex() string {
	return hexutil.Encode(s[:])
}

// Selectors maps protocol methods to their selectors.
type Selectors struct {
	Borrow      Selector
	Repay       Selector
	Liquidation Selector
}

// Weights is the weight table of the aggregated score. It must sum to 1.
type Weights struct {
	Collateral  float64
	Borrowed    float64
	Liquidation float64
	Frequency   float64
	Repay       float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Collateral + w.Borrowed + w.Liquidation + w.Frequency + w.Repay
}

// Params is the protocol configuration of the scoring pipeline.
// Values are copied into every call and never mutated.
type Params struct {
	ProtocolContract common.Address
	Selectors        Selectors
	Weights          Weights

	CollateralMin    float64
	CollateralMax    float64
	MaxBorrowedValue float64

	// Simulated collateral ratio: max(CollateralFloor, CollateralBase - CollateralStep*txCount).
	CollateralBase  float64
	CollateralStep  float64
	CollateralFloor float64

	LiquidationBase float64
	MaxLiquidations int
	FrequencyScale  float64

	BurstWindowSeconds uint64
	BurstBonus         float64

	HighVolatility float64
	LowVolatility  float64
	HighMultiplier float64
	LowMultiplier  float64

	// BoundRawTerms normalizes the liquidation and frequency terms onto [0,1]
	// before weighting. When false the raw 1.5^n and txCount/scale terms are used.
	BoundRawTerms bool
}

// DefaultParams returns the Compound V2 parameters.
func DefaultParams() Params {
	return Params{
		ProtocolContract: common.HexToAddress(CompoundV2Comptroller),
		Selectors: Selectors{
			Borrow:      Selector{0xc5, 0xeb, 0xea, 0xec},
			Repay:       Selector{0x0e, 0x75, 0x27, 0x02},
			Liquidation: Selector{0xef, 0xef, 0x39, 0xa1},
		},
		Weights: Weights{
			Collateral:  0.40,
			Borrowed:    0.30,
			Liquidation: 0.15,
			Frequency:   0.10,
			Repay:       0.05,
		},
		CollateralMin:      1.1,
		CollateralMax:      2.0,
		MaxBorrowedValue:   1_000_000,
		CollateralBase:     2.5,
		CollateralStep:     0.1,
		CollateralFloor:    1.3,
		LiquidationBase:    1.5,
		MaxLiquidations:    10,
		FrequencyScale:     30,
		BurstWindowSeconds: 86400,
		BurstBonus:         0.025,
		HighVolatility:     30,
		LowVolatility:      10,
		HighMultiplier:     1.2,
		LowMultiplier:      0.9,
		BoundRawTerms:      true,
	}
}

// Validate rejects parameter sets the pipeline cannot score with.
func (p Params) Validate() error {
	if p.ProtocolContract == (common.Address{}) {
		return fmt.Errorf("protocol contract is required")
	}
	sels := []Selector{p.Selectors.Borrow, p.Selectors.Repay, p.Selectors.Liquidation}
	for i, sel := range sels {
		if sel == (Selector{}) {
			return fmt.Errorf("selector %d is empty", i)
		}
		for j := i + 1; j < len(sels); j++ {
			if sel == sels[j] {
				return fmt.Errorf("duplicate selector %s", sel.Hex())
			}
		}
	}
	weights := []float64{p.Weights.Collateral, p.Weights.Borrowed, p.Weights.Liquidation, p.Weights.Frequency, p.Weights.Repay}
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("invalid weight %v", w)
		}
	}
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	if p.CollateralMax <= p.CollateralMin {
		return fmt.Errorf("collateral bounds must satisfy min < max")
	}
	if p.MaxBorrowedValue <= 1 {
		return fmt.Errorf("max borrowed value must be greater than 1")
	}
	if !(p.LiquidationBase > 1) || math.IsInf(p.LiquidationBase, 0) {
		return fmt.Errorf("liquidation base must be finite and greater than 1")
	}
	if p.MaxLiquidations <= 0 {
		return fmt.Errorf("max liquidations must be positive")
	}
	if math.IsInf(math.Pow(p.LiquidationBase, float64(p.MaxLiquidations)), 1) {
		return fmt.Errorf("max liquidations %d overflows liquidation base %v", p.MaxLiquidations, p.LiquidationBase)
	}
	if p.FrequencyScale <= 0 {
		return fmt.Errorf("frequency scale must be positive")
	}
	if p.LowVolatility > p.HighVolatility {
		return fmt.Errorf("low volatility threshold exceeds high threshold")
	}
	return nil
}
