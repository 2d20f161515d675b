package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"walletRisk/internal/metrics"
	"walletRisk/internal/model"
)

// ETHUSDFeed is the Chainlink ETH/USD aggregator proxy on mainnet.
const ETHUSDFeed = "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"

const feedDecimals = 8

const aggregatorABIJSON = `[
  {"inputs": [], "name": "latestRoundData", "outputs": [
    {"internalType": "uint80", "name": "roundId", "type": "uint80"},
    {"internalType": "int256", "name": "answer", "type": "int256"},
    {"internalType": "uint256", "name": "startedAt", "type": "uint256"},
    {"internalType": "uint256", "name": "updatedAt", "type": "uint256"},
    {"internalType": "uint80", "name": "answeredInRound", "type": "uint80"}
  ], "stateMutability": "view", "type": "function"}
]`

var (
	aggregatorABI    abi.ABI
	aggregatorOnce   sync.Once
	aggregatorABIErr error
)

func getAggregatorABI() (abi.ABI, error) {
	aggregatorOnce.Do(func() {
		aggregatorABI, aggregatorABIErr = abi.JSON(strings.NewReader(aggregatorABIJSON))
	})
	return aggregatorABI, aggregatorABIErr
}

// Caller issues read-only contract calls. A nil block targets latest.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Chainlink prices amounts with the aggregator answer at the transaction's block.
// Nodes without archive state fall back to the latest answer.
type Chainlink struct {
	caller Caller
	feed   common.Address
	logger *zap.Logger

	mu     sync.RWMutex
	prices map[uint64]float64
}

func NewChainlink(caller Caller, feed common.Address, logger *zap.Logger) *Chainlink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chainlink{
		caller: caller,
		feed:   feed,
		logger: logger,
		prices: make(map[uint64]float64),
	}
}

func (c *Chainlink) USDValue(ctx context.Context, wei *big.Int, at model.Moment) (float64, error) {
	price, err := c.priceAt(ctx, at.BlockNumber)
	if err != nil {
		metrics.OracleErrors.Inc()
		return 0, err
	}
	return WeiToETH(wei) * price, nil
}

func (c *Chainlink) priceAt(ctx context.Context, blockNumber uint64) (float64, error) {
	c.mu.RLock()
	price, ok := c.prices[blockNumber]
	c.mu.RUnlock()
	if ok {
		return price, nil
	}

	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}
	price, err := c.latestRoundData(ctx, block)
	if err != nil && block != nil {
		c.logger.Debug("pinned price lookup failed, using latest",
			zap.Uint64("block", blockNumber),
			zap.Error(err),
		)
		price, err = c.latestRoundData(ctx, nil)
	}
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.prices[blockNumber] = price
	c.mu.Unlock()
	return price, nil
}

func (c *Chainlink) latestRoundData(ctx context.Context, block *big.Int) (float64, error) {
	if c.caller == nil {
		return 0, fmt.Errorf("chain caller is nil")
	}
	parsed, err := getAggregatorABI()
	if err != nil {
		return 0, err
	}

	data, err := parsed.Pack("latestRoundData")
	if err != nil {
		return 0, fmt.Errorf("pack latestRoundData: %w", err)
	}

	msg := ethereum.CallMsg{To: &c.feed, Data: data}
	resp, err := c.caller.CallContract(ctx, msg, block)
	if err != nil {
		return 0, fmt.Errorf("call latestRoundData: %w", err)
	}

	values, err := parsed.Unpack("latestRoundData", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack latestRoundData: %w", err)
	}
	if len(values) != 5 {
		return 0, fmt.Errorf("latestRoundData return size %d", len(values))
	}
	answer, ok := values[1].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("latestRoundData unexpected answer type %T", values[1])
	}
	if answer.Sign() <= 0 {
		return 0, fmt.Errorf("latestRoundData non-positive answer %s", answer)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(feedDecimals), nil)
	price, _ := new(big.Rat).SetFrac(answer, scale).Float64()
	return price, nil
}
