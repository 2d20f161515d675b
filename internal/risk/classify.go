package risk

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"walletRisk/internal/model"
)

// MethodSelector extracts the leading 4 bytes of hex input data.
func MethodSelector(input string) (Selector, bool) {
	input = strings.TrimSpace(input)
	if len(input) < 10 {
		return Selector{}, false
	}
	data, err := hexutil.Decode(input[:10])
	if err != nil {
		return Selector{}, false
	}
	var sel Selector
	copy(sel[:], data)
	return sel, true
}

// Classify tags a transaction with the protocol event it invokes.
func Classify(tx model.RawTransaction, params Params) model.ClassifiedTransaction {
	return model.ClassifiedTransaction{Tx: tx, Type: classifyType(tx, params)}
}

func classifyType(tx model.RawTransaction, params Params) model.TransactionType {
	to := strings.TrimSpace(tx.To)
	if !common.IsHexAddress(to) || common.HexToAddress(to) != params.ProtocolContract {
		return model.TxOther
	}

	sel, ok := MethodSelector(tx.Input)
	if !ok {
		return model.TxOther
	}

	switch sel {
	case params.Selectors.Borrow:
		return model.TxBorrow
	case params.Selectors.Repay:
		return model.TxRepay
	case params.Selectors.Liquidation:
		return model.TxLiquidation
	default:
		return model.TxOther
	}
}

// ClassifyAll classifies every valid transaction. Records failing validation
// are skipped and reported as warnings.
func ClassifyAll(txs []model.RawTransaction, params Params) ([]model.ClassifiedTransaction, []string) {
	out := make([]model.ClassifiedTransaction, 0, len(txs))
	var warnings []string
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("skip tx %d (%s): %v", i, tx.Hash, err))
			continue
		}
		out = append(out, Classify(tx, params))
	}
	return out, warnings
}
