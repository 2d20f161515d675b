package model

// ScoreOutcome is the result for one wallet of a batch run. Exactly one of
// Report and Err is set.
type ScoreOutcome struct {
	WalletAddress string
	Report        *RiskScoreReport
	Err           *ScoreError
}
