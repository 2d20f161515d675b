package batch

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"walletRisk/internal/model"
	"walletRisk/internal/risk"
)

const (
	walletA = "0x1111111111111111111111111111111111111111"
	walletB = "0x2222222222222222222222222222222222222222"
	walletC = "0x3333333333333333333333333333333333333333"
)

type mapSource struct {
	mu    sync.Mutex
	txs   map[string][]model.RawTransaction
	delay map[string]time.Duration
	calls []string
}

func (s *mapSource) Fetch(ctx context.Context, address string) []model.RawTransaction {
	s.mu.Lock()
	s.calls = append(s.calls, address)
	delay := s.delay[address]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
	return s.txs[strings.ToLower(address)]
}

type fixedOracle float64

func (o fixedOracle) USDValue(_ context.Context, wei *big.Int, _ model.Moment) (float64, error) {
	eth, _ := new(big.Rat).SetFrac(wei, big.NewInt(1_000_000_000_000_000_000)).Float64()
	return eth * float64(o), nil
}

func borrowTx(from string, ts uint64) model.RawTransaction {
	return model.RawTransaction{
		Hash:        "0x" + strings.Repeat("b", 64),
		From:        from,
		To:          strings.ToLower(risk.CompoundV2Comptroller),
		Input:       risk.BorrowSelectorHex + "0000",
		Value:       big.NewInt(1_000_000_000_000_000_000),
		Timestamp:   ts,
		BlockNumber: 18_000_000,
	}
}

func newTestScorer(t *testing.T) *risk.Scorer {
	t.Helper()
	scorer, err := risk.NewScorer(risk.DefaultParams(), nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return scorer
}

func TestScoreRunnerKeepsInputOrder(t *testing.T) {
	source := &mapSource{
		txs: map[string][]model.RawTransaction{
			walletA: {borrowTx(walletA, 1_700_000_000)},
			walletC: {borrowTx(walletC, 1_700_000_000), borrowTx(walletC, 1_700_000_100)},
		},
		delay: map[string]time.Duration{walletA: 30 * time.Millisecond},
	}
	runner := NewScoreRunner(newTestScorer(t), source, fixedOracle(2000), nil, 3, nil)

	wallets := []string{walletA, "not-a-wallet", " " + walletB + " ", walletC}
	outcomes, err := runner.Run(context.Background(), wallets)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != len(wallets) {
		t.Fatalf("outcome count mismatch: %d", len(outcomes))
	}

	wantAddr := []string{walletA, "not-a-wallet", walletB, walletC}
	for i, o := range outcomes {
		if o.WalletAddress != wantAddr[i] {
			t.Fatalf("outcome %d address mismatch: %s", i, o.WalletAddress)
		}
	}

	if outcomes[1].Err == nil || outcomes[1].Report != nil {
		t.Fatalf("expected score error for invalid wallet: %+v", outcomes[1])
	}
	if got := outcomes[0].Report.FeatureVector.BorrowCount; got != 1 {
		t.Fatalf("wallet A borrow count mismatch: %d", got)
	}
	if got := outcomes[0].Report.FeatureVector.BorrowedValueUSD; got != 2000 {
		t.Fatalf("wallet A borrowed value mismatch: %v", got)
	}
	if got := outcomes[2].Report.FeatureVector.TxCount; got != 0 {
		t.Fatalf("wallet B tx count mismatch: %d", got)
	}
	if !outcomes[3].Report.FeatureVector.BurstActivity {
		t.Fatalf("wallet C expected burst activity")
	}
	for i, o := range outcomes {
		if o.Report == nil {
			continue
		}
		if o.Report.Score < risk.MinScore || o.Report.Score > risk.MaxScore {
			t.Fatalf("outcome %d score out of range: %d", i, o.Report.Score)
		}
	}
	if len(source.calls) != 3 {
		t.Fatalf("expected invalid wallet not fetched, calls=%v", source.calls)
	}
}

func TestScoreRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewScoreRunner(newTestScorer(t), &mapSource{}, nil, nil, 2, nil)
	if _, err := runner.Run(ctx, []string{walletA, walletB}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type memoryHistories struct {
	batches [][]model.WalletHistory
}

func (m *memoryHistories) PutHistories(_ context.Context, histories []model.WalletHistory) error {
	m.batches = append(m.batches, histories)
	return nil
}

func TestFetchRunnerCheckpoints(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state", "fetch.json")}
	source := &mapSource{txs: map[string][]model.RawTransaction{walletA: {borrowTx(walletA, 1)}}}
	sink := &memoryHistories{}
	runner := NewFetchRunner(FetchConfig{BatchSize: 2}, source, sink, state, nil)

	wallets := []string{walletA, walletB, strings.ToUpper(walletA[:2]) + walletA[2:], walletC, walletB}
	if err := runner.Run(context.Background(), wallets); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.batches) != 3 {
		t.Fatalf("batch count mismatch: %d", len(sink.batches))
	}
	var fetched []string
	for _, b := range sink.batches {
		for _, h := range b {
			fetched = append(fetched, h.Wallet)
		}
	}
	if strings.Join(fetched, ",") != strings.Join([]string{walletA, walletB, walletC}, ",") {
		t.Fatalf("fetched wallets mismatch: %v", fetched)
	}
	if len(sink.batches[0][0].Transactions) != 1 {
		t.Fatalf("wallet A transactions mismatch: %+v", sink.batches[0][0])
	}

	next, ok, err := state.Load(context.Background())
	if err != nil || !ok || next != 5 {
		t.Fatalf("state mismatch: next=%d ok=%v err=%v", next, ok, err)
	}

	source.calls = nil
	if err := runner.Run(context.Background(), wallets); err != nil {
		t.Fatalf("Run again: %v", err)
	}
	if len(source.calls) != 0 {
		t.Fatalf("expected no fetches after completion, got %v", source.calls)
	}
}

func TestFetchRunnerResumes(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "fetch.json")}
	if err := state.Save(context.Background(), 2); err != nil {
		t.Fatalf("Save: %v", err)
	}
	source := &mapSource{}
	runner := NewFetchRunner(FetchConfig{BatchSize: 10}, source, &memoryHistories{}, state, nil)

	if err := runner.Run(context.Background(), []string{walletA, walletB, walletC}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(source.calls) != 1 || source.calls[0] != walletC {
		t.Fatalf("resume calls mismatch: %v", source.calls)
	}
}

func TestFetchRunnerResumeSkipsEarlierDuplicates(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "fetch.json")}
	if err := state.Save(context.Background(), 2); err != nil {
		t.Fatalf("Save: %v", err)
	}
	source := &mapSource{}
	sink := &memoryHistories{}
	runner := NewFetchRunner(FetchConfig{BatchSize: 10}, source, sink, state, nil)

	wallets := []string{walletA, walletB, strings.ToUpper(walletA[:2]) + walletA[2:], walletC}
	if err := runner.Run(context.Background(), wallets); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(source.calls) != 1 || source.calls[0] != walletC {
		t.Fatalf("resume should only fetch the new wallet: %v", source.calls)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("history batches mismatch: %+v", sink.batches)
	}
}

func TestFetchRunnerDoesNotPersistCancelledBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &mapSource{delay: map[string]time.Duration{walletA: time.Hour}}
	sink := &memoryHistories{}
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "fetch.json")}
	runner := NewFetchRunner(FetchConfig{BatchSize: 5}, source, sink, state, nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := runner.Run(ctx, []string{walletA, walletB}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("expected nothing written, got %d batches", len(sink.batches))
	}
	if _, ok, _ := state.Load(context.Background()); ok {
		t.Fatalf("expected no saved state")
	}
}

type memoryBackend struct {
	state map[string]uint64
}

func (m *memoryBackend) LoadState(_ context.Context, name string) (uint64, bool, error) {
	v, ok := m.state[name]
	return v, ok, nil
}

func (m *memoryBackend) SaveState(_ context.Context, name string, pos uint64) error {
	m.state[name] = pos
	return nil
}

func TestDBStateStore(t *testing.T) {
	backend := &memoryBackend{state: make(map[string]uint64)}
	store := &DBStateStore{Backend: backend, Name: "fetch"}

	if _, ok, err := store.Load(context.Background()); ok || err != nil {
		t.Fatalf("expected empty state, ok=%v err=%v", ok, err)
	}
	if err := store.Save(context.Background(), 7); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, ok, _ := store.Load(context.Background()); !ok || v != 7 {
		t.Fatalf("state mismatch: %d %v", v, ok)
	}

	var nilStore *DBStateStore
	if err := nilStore.Save(context.Background(), 1); err != nil {
		t.Fatalf("nil store Save: %v", err)
	}
}

type failingSink struct{ calls int }

func (f *failingSink) PutOutcomes(context.Context, []model.ScoreOutcome) error {
	f.calls++
	return errors.New("disk full")
}

type countingSink struct{ calls int }

func (c *countingSink) PutOutcomes(context.Context, []model.ScoreOutcome) error {
	c.calls++
	return nil
}

func TestPublish(t *testing.T) {
	first, failing, last := &countingSink{}, &failingSink{}, &countingSink{}
	err := Publish(context.Background(), []model.ScoreOutcome{{WalletAddress: walletA}}, first, nil, failing, last)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if first.calls != 1 || failing.calls != 1 || last.calls != 0 {
		t.Fatalf("sink calls mismatch: %d %d %d", first.calls, failing.calls, last.calls)
	}
}
