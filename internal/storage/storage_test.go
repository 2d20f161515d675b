package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"walletRisk/internal/model"
)

const walletA = "0x1111111111111111111111111111111111111111"
const walletB = "0x2222222222222222222222222222222222222222"

func sampleOutcomes() []model.ScoreOutcome {
	return []model.ScoreOutcome{
		{
			WalletAddress: walletA,
			Report: &model.RiskScoreReport{
				WalletAddress: walletA,
				Score:         412,
				FeatureVector: model.WalletFeatureVector{
					TxCount:          3,
					BorrowCount:      2,
					LiquidationCount: 1,
					CollateralRatio:  2.2,
					BorrowedValueUSD: 1500.5,
				},
				MarketMultiplier: 1,
			},
		},
		{
			WalletAddress: "bad",
			Err:           &model.ScoreError{WalletAddress: "bad", Error: "invalid wallet address"},
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestReadWallets(t *testing.T) {
	input := "\ufeffid, wallet_id ,note\n1," + walletA + ",x\n2,,blank\n3, " + walletB + " ,y\n4\n"
	got, err := readWallets(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readWallets: %v", err)
	}
	want := []string{walletA, walletB}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wallets mismatch: %+v", got)
	}
}

func TestReadWalletsErrors(t *testing.T) {
	if _, err := readWallets(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := readWallets(strings.NewReader("address\n" + walletA + "\n")); err == nil {
		t.Fatalf("expected error for missing wallet_id column")
	}
	if _, err := ReadWallets(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCSVReports(t *testing.T) {
	dir := t.TempDir()
	sink := CSVReports{
		DataPath:  filepath.Join(dir, "out", "wallet_data.csv"),
		ScorePath: filepath.Join(dir, "out", "wallet_score.csv"),
	}
	if err := sink.PutOutcomes(context.Background(), sampleOutcomes()); err != nil {
		t.Fatalf("PutOutcomes: %v", err)
	}

	data := readCSV(t, sink.DataPath)
	wantData := [][]string{
		walletDataHeader,
		{walletA, "412", "3", "2", "1", "2.2", "1500.5"},
		{"bad", "", "0", "0", "0", "0", "0"},
	}
	if !reflect.DeepEqual(data, wantData) {
		t.Fatalf("wallet_data mismatch: %+v", data)
	}

	scores := readCSV(t, sink.ScorePath)
	wantScores := [][]string{walletScoreHeader, {walletA, "412"}, {"bad", ""}}
	if !reflect.DeepEqual(scores, wantScores) {
		t.Fatalf("wallet_score mismatch: %+v", scores)
	}

	if err := sink.PutOutcomes(context.Background(), sampleOutcomes()[:1]); err != nil {
		t.Fatalf("PutOutcomes again: %v", err)
	}
	if got := len(readCSV(t, sink.ScorePath)); got != 2 {
		t.Fatalf("expected file to be replaced, got %d rows", got)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestJsonlReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	sink := NewJsonlReports(path)
	if err := sink.PutOutcomes(context.Background(), sampleOutcomes()); err != nil {
		t.Fatalf("PutOutcomes: %v", err)
	}
	if err := sink.PutOutcomes(context.Background(), nil); err != nil {
		t.Fatalf("PutOutcomes empty: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("line count mismatch: %d", len(lines))
	}
	var report model.RiskScoreReport
	if err := json.Unmarshal([]byte(lines[0]), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.WalletAddress != walletA || report.Score != 412 {
		t.Fatalf("report mismatch: %+v", report)
	}
	var scoreErr model.ScoreError
	if err := json.Unmarshal([]byte(lines[1]), &scoreErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if scoreErr.Error != "invalid wallet address" {
		t.Fatalf("error mismatch: %+v", scoreErr)
	}
}

func TestHistoriesRoundTripThroughFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.jsonl")
	sink := NewJsonlHistories(path)

	tx := model.RawTransaction{
		Hash:        "0xaa",
		From:        walletA,
		To:          "0x3d9819210a31b4961b30ef54be2aed79b9c9cd3b",
		Input:       "0xc5ebeaec",
		Value:       big.NewInt(42),
		Timestamp:   1700000000,
		BlockNumber: 18500000,
	}
	histories := []model.WalletHistory{
		{Wallet: walletA, Transactions: []model.RawTransaction{tx}, FetchedAt: time.Unix(1700000500, 0).UTC()},
		{Wallet: walletB, FetchedAt: time.Unix(1700000600, 0).UTC()},
	}
	if err := sink.PutHistories(context.Background(), histories); err != nil {
		t.Fatalf("PutHistories: %v", err)
	}

	src, err := LoadFileSource(path)
	if err != nil {
		t.Fatalf("LoadFileSource: %v", err)
	}
	if src.Len() != 2 {
		t.Fatalf("wallet count mismatch: %d", src.Len())
	}
	if !src.Has(strings.ToUpper(walletB)) {
		t.Fatalf("expected wallet B present")
	}

	got := src.Fetch(context.Background(), "0x1111111111111111111111111111111111111111")
	if len(got) != 1 || got[0].Hash != "0xaa" || got[0].Value.Int64() != 42 {
		t.Fatalf("transactions mismatch: %+v", got)
	}
	got[0].Hash = "mutated"
	if again := src.Fetch(context.Background(), walletA); again[0].Hash != "0xaa" {
		t.Fatalf("Fetch leaked internal slice")
	}

	if src.Fetch(context.Background(), "0x3333333333333333333333333333333333333333") != nil {
		t.Fatalf("expected nil for unknown wallet")
	}
}

func TestLoadFileSourceRejectsCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"wallet\":\"x\"}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFileSource(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
