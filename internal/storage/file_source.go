package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"walletRisk/internal/model"
)

// FileSource serves wallet histories previously written by JsonlHistories.
// Later lines for the same wallet replace earlier ones.
type FileSource struct {
	histories map[string][]model.RawTransaction
}

// LoadFileSource reads a histories JSONL file into memory.
func LoadFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open histories: %w", err)
	}
	defer file.Close()

	src := &FileSource{histories: make(map[string][]model.RawTransaction)}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 256*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var h model.WalletHistory
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", line, err)
		}
		src.histories[strings.ToLower(h.Wallet)] = h.Transactions
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan histories: %w", err)
	}
	return src, nil
}

// Len returns the number of wallets held.
func (s *FileSource) Len() int {
	return len(s.histories)
}

// Has reports whether the file contained the wallet.
func (s *FileSource) Has(address string) bool {
	_, ok := s.histories[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

// Fetch returns a copy of the wallet's transactions, or nil when the wallet is unknown.
func (s *FileSource) Fetch(_ context.Context, address string) []model.RawTransaction {
	txs, ok := s.histories[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return nil
	}
	out := make([]model.RawTransaction, len(txs))
	copy(out, txs)
	return out
}
