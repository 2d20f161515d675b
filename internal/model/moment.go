package model

// Moment pins a price lookup to a transaction's position on chain.
type Moment struct {
	Timestamp   uint64
	BlockNumber uint64
}
