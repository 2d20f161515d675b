package model

// ScoreError records a wallet that could not be scored.
type ScoreError struct {
	WalletAddress string `json:"wallet_address"`
	Error         string `json:"error"`
}
