package storage

import (
	"context"

	"walletRisk/internal/model"
)

// ReportSink receives the outcomes of a score run in input order.
type ReportSink interface {
	PutOutcomes(ctx context.Context, outcomes []model.ScoreOutcome) error
}

// HistorySink receives fetched wallet histories.
type HistorySink interface {
	PutHistories(ctx context.Context, histories []model.WalletHistory) error
}
