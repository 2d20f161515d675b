package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RawTransaction is a wallet transaction as returned by the explorer.
type RawTransaction struct {
	Hash        string   `json:"hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Input       string   `json:"input"`
	Value       *big.Int `json:"-"`
	Timestamp   uint64   `json:"timestamp"`
	BlockNumber uint64   `json:"block_number"`
}

type rawTransactionJSON struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	Value       string `json:"value_wei"`
	Timestamp   uint64 `json:"timestamp"`
	BlockNumber uint64 `json:"block_number"`
}

// MarshalJSON encodes the wei value as a decimal string.
func (tx RawTransaction) MarshalJSON() ([]byte, error) {
	value := "0"
	if tx.Value != nil {
		value = tx.Value.String()
	}
	return json.Marshal(rawTransactionJSON{
		Hash:        tx.Hash,
		From:        tx.From,
		To:          tx.To,
		Input:       tx.Input,
		Value:       value,
		Timestamp:   tx.Timestamp,
		BlockNumber: tx.BlockNumber,
	})
}

// UnmarshalJSON decodes a RawTransaction, parsing the wei value string.
func (tx *RawTransaction) UnmarshalJSON(data []byte) error {
	var a rawTransactionJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var value *big.Int
	if a.Value != "" {
		parsed, ok := new(big.Int).SetString(a.Value, 10)
		if !ok {
			return fmt.Errorf("invalid value_wei: %s", a.Value)
		}
		value = parsed
	}
	*tx = RawTransaction{
		Hash:        a.Hash,
		From:        a.From,
		To:          a.To,
		Input:       a.Input,
		Value:       value,
		Timestamp:   a.Timestamp,
		BlockNumber: a.BlockNumber,
	}
	return nil
}

// Validate checks the fields every later stage relies on.
func (tx RawTransaction) Validate() error {
	if strings.TrimSpace(tx.Hash) == "" {
		return fmt.Errorf("missing hash")
	}
	if !common.IsHexAddress(tx.From) {
		return fmt.Errorf("invalid from address: %q", tx.From)
	}
	// An empty to is a contract creation.
	if tx.To != "" && !common.IsHexAddress(tx.To) {
		return fmt.Errorf("invalid to address: %q", tx.To)
	}
	if tx.Value == nil {
		return fmt.Errorf("missing value")
	}
	if tx.Value.Sign() < 0 {
		return fmt.Errorf("negative value: %s", tx.Value)
	}
	if tx.Timestamp == 0 {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}

// Involves reports whether the address is the sender or recipient.
func (tx RawTransaction) Involves(address string) bool {
	return strings.EqualFold(tx.From, address) || strings.EqualFold(tx.To, address)
}
