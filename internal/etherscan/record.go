package etherscan

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"walletRisk/internal/model"
)

// txRecord is one entry of the txlist result. Etherscan encodes every field as a string.
type txRecord struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	BlockNumber string `json:"blockNumber"`
}

func (r txRecord) toRawTransaction() (model.RawTransaction, error) {
	ts, err := strconv.ParseUint(strings.TrimSpace(r.TimeStamp), 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parse timeStamp %q: %w", r.TimeStamp, err)
	}
	block, err := strconv.ParseUint(strings.TrimSpace(r.BlockNumber), 10, 64)
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parse blockNumber %q: %w", r.BlockNumber, err)
	}
	value, ok := new(big.Int).SetString(strings.TrimSpace(r.Value), 10)
	if !ok {
		return model.RawTransaction{}, fmt.Errorf("parse value %q", r.Value)
	}

	tx := model.RawTransaction{
		Hash:        strings.TrimSpace(r.Hash),
		From:        strings.ToLower(strings.TrimSpace(r.From)),
		To:          strings.ToLower(strings.TrimSpace(r.To)),
		Input:       strings.TrimSpace(r.Input),
		Value:       value,
		Timestamp:   ts,
		BlockNumber: block,
	}
	if err := tx.Validate(); err != nil {
		return model.RawTransaction{}, err
	}
	return tx, nil
}
