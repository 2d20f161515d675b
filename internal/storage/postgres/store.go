package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"walletRisk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallet_risk_scores (
	run_id                 uuid             NOT NULL,
	wallet_address         text             NOT NULL,
	score                  integer,
	low_confidence         boolean          NOT NULL DEFAULT false,
	market_multiplier      double precision NOT NULL DEFAULT 1,
	feature_vector         jsonb,
	normalized_vector      jsonb,
	weighted_contributions jsonb,
	warnings               jsonb,
	error                  text,
	created_at             timestamptz      NOT NULL DEFAULT now(),
	updated_at             timestamptz      NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, wallet_address)
);
CREATE TABLE IF NOT EXISTS runner_state (
	name       text        PRIMARY KEY,
	position   bigint      NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for score runs.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type reportRow struct {
	score         *int
	lowConfidence bool
	multiplier    float64
	features      []byte
	normalized    []byte
	contributions []byte
	warnings      []byte
	errText       *string
}

func toReportRow(o model.ScoreOutcome) (reportRow, error) {
	if o.Report == nil {
		row := reportRow{multiplier: 1}
		if o.Err != nil {
			row.errText = &o.Err.Error
		}
		return row, nil
	}

	r := o.Report
	row := reportRow{
		score:         &r.Score,
		lowConfidence: r.LowConfidence,
		multiplier:    r.MarketMultiplier,
	}
	var err error
	if row.features, err = json.Marshal(r.FeatureVector); err != nil {
		return reportRow{}, fmt.Errorf("marshal feature vector: %w", err)
	}
	if row.normalized, err = json.Marshal(r.NormalizedVector); err != nil {
		return reportRow{}, fmt.Errorf("marshal normalized vector: %w", err)
	}
	if row.contributions, err = json.Marshal(r.WeightedContributions); err != nil {
		return reportRow{}, fmt.Errorf("marshal contributions: %w", err)
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	if row.warnings, err = json.Marshal(warnings); err != nil {
		return reportRow{}, fmt.Errorf("marshal warnings: %w", err)
	}
	return row, nil
}

// UpsertReports inserts or updates the outcomes of one run.
func (s *Store) UpsertReports(ctx context.Context, runID uuid.UUID, outcomes []model.ScoreOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range outcomes {
		row, err := toReportRow(o)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO wallet_risk_scores (
				run_id, wallet_address, score, low_confidence, market_multiplier,
				feature_vector, normalized_vector, weighted_contributions, warnings, error,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (run_id, wallet_address)
			DO UPDATE SET
				score = EXCLUDED.score,
				low_confidence = EXCLUDED.low_confidence,
				market_multiplier = EXCLUDED.market_multiplier,
				feature_vector = EXCLUDED.feature_vector,
				normalized_vector = EXCLUDED.normalized_vector,
				weighted_contributions = EXCLUDED.weighted_contributions,
				warnings = EXCLUDED.warnings,
				error = EXCLUDED.error,
				updated_at = now()
		`,
			runID.String(),
			o.WalletAddress,
			row.score,
			row.lowConfidence,
			row.multiplier,
			row.features,
			row.normalized,
			row.contributions,
			row.warnings,
			row.errText,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range outcomes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert report: %w", err)
		}
	}
	return nil
}

// LoadState returns the saved position for a runner name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var pos int64
	row := s.pool.QueryRow(ctx, `SELECT position FROM runner_state WHERE name=$1`, name)
	if err := row.Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(pos), true, nil
}

// SaveState upserts the position for a runner name.
func (s *Store) SaveState(ctx context.Context, name string, pos uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runner_state (name, position, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position, updated_at = now()
	`, name, int64(pos))
	return err
}

// ReportSink adapts Store to the batch output sink for a single run.
type ReportSink struct {
	Store *Store
	RunID uuid.UUID
}

func (s ReportSink) PutOutcomes(ctx context.Context, outcomes []model.ScoreOutcome) error {
	if s.Store == nil {
		return fmt.Errorf("postgres store is nil")
	}
	return s.Store.UpsertReports(ctx, s.RunID, outcomes)
}
