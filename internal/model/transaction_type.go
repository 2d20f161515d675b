package model

// TransactionType is the protocol event a transaction maps to.
type TransactionType string

const (
	TxBorrow      TransactionType = "borrow"
	TxRepay       TransactionType = "repay"
	TxLiquidation TransactionType = "liquidation"
	TxOther       TransactionType = "other"
)

// Relevant reports whether the type counts as protocol activity.
func (t TransactionType) Relevant() bool {
	switch t {
	case TxBorrow, TxRepay, TxLiquidation:
		return true
	default:
		return false
	}
}

// ClassifiedTransaction pairs a raw transaction with its protocol event type.
type ClassifiedTransaction struct {
	Tx   RawTransaction  `json:"tx"`
	Type TransactionType `json:"type"`
}
