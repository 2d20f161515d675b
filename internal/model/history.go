package model

import "time"

// WalletHistory is one fetched wallet with its transactions.
type WalletHistory struct {
	Wallet       string           `json:"wallet"`
	Transactions []RawTransaction `json:"transactions"`
	FetchedAt    time.Time        `json:"fetched_at"`
}
