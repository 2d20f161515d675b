package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"walletRisk/internal/model"
	"walletRisk/internal/storage"
)

// TransactionSource returns the transaction history of a wallet. It never
// fails: an unavailable history is empty.
type TransactionSource interface {
	Fetch(ctx context.Context, address string) []model.RawTransaction
}

// FetchConfig holds runtime settings for the fetch runner.
type FetchConfig struct {
	BatchSize uint64
}

// FetchRunner downloads wallet histories one wallet at a time and writes them
// to a sink, checkpointing after every batch. Repeated wallets are fetched
// once per input list, including across a resume.
type FetchRunner struct {
	cfg    FetchConfig
	source TransactionSource
	sink   storage.HistorySink
	state  StateStore
	logger *zap.Logger
	now    func() time.Time
}

func NewFetchRunner(cfg FetchConfig, source TransactionSource, sink storage.HistorySink, state StateStore, logger *zap.Logger) *FetchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchRunner{
		cfg:    cfg,
		source: source,
		sink:   sink,
		state:  state,
		logger: logger,
		now:    time.Now,
	}
}

// Run fetches wallets, resuming after the last saved position.
func (r *FetchRunner) Run(ctx context.Context, wallets []string) error {
	if r.source == nil {
		return fmt.Errorf("transaction source is nil")
	}
	if r.sink == nil {
		return fmt.Errorf("history sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(wallets) == 0 {
		r.logger.Info("no wallets to fetch")
		return nil
	}

	var from uint64
	if r.state != nil {
		next, ok, err := r.state.Load(ctx)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if ok {
			from = next
			r.logger.Info("resume from state", zap.Uint64("next_wallet", next))
		}
	}

	last := uint64(len(wallets) - 1)
	if from > last {
		r.logger.Info("nothing to fetch", zap.Uint64("next_wallet", from), zap.Int("wallets", len(wallets)))
		return nil
	}

	ranges, err := SplitRange(from, last, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	// Wallets before the resume point were written by an earlier run.
	seen := make(map[string]struct{}, len(wallets))
	for _, wallet := range wallets[:from] {
		seen[strings.ToLower(strings.TrimSpace(wallet))] = struct{}{}
	}
	for _, chunk := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}

		histories := make([]model.WalletHistory, 0, chunk.To-chunk.From+1)
		for i := chunk.From; i <= chunk.To; i++ {
			wallet := strings.TrimSpace(wallets[i])
			key := strings.ToLower(wallet)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			txs := r.source.Fetch(ctx, wallet)
			histories = append(histories, model.WalletHistory{
				Wallet:       wallet,
				Transactions: txs,
				FetchedAt:    r.now().UTC(),
			})
		}

		// A cancelled fetch yields empty histories; do not persist them.
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.sink.PutHistories(ctx, histories); err != nil {
			return fmt.Errorf("store histories: %w", err)
		}
		if r.state != nil {
			if err := r.state.Save(ctx, chunk.To+1); err != nil {
				return fmt.Errorf("save state: %w", err)
			}
		}

		r.logger.Info("batch complete",
			zap.Int("wallets", len(histories)),
			zap.Uint64("from", chunk.From),
			zap.Uint64("to", chunk.To),
		)
	}

	return nil
}
