package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"walletRisk/internal/model"
)

// jsonlFile appends JSON lines to a file.
type jsonlFile struct {
	path string
	mu   sync.Mutex
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}

func (f *jsonlFile) append(records []any) error {
	if len(records) == 0 {
		return nil
	}
	if err := ensureDir(f.path); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// JsonlReports writes one line per wallet: the report, or the score error.
type JsonlReports struct {
	file jsonlFile
}

func NewJsonlReports(path string) *JsonlReports {
	return &JsonlReports{file: jsonlFile{path: path}}
}

func (s *JsonlReports) PutOutcomes(_ context.Context, outcomes []model.ScoreOutcome) error {
	records := make([]any, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.Report != nil:
			records = append(records, o.Report)
		case o.Err != nil:
			records = append(records, o.Err)
		}
	}
	return s.file.append(records)
}

// JsonlHistories writes one line per fetched wallet.
type JsonlHistories struct {
	file jsonlFile
}

func NewJsonlHistories(path string) *JsonlHistories {
	return &JsonlHistories{file: jsonlFile{path: path}}
}

func (s *JsonlHistories) PutHistories(_ context.Context, histories []model.WalletHistory) error {
	records := make([]any, len(histories))
	for i, h := range histories {
		records[i] = h
	}
	return s.file.append(records)
}
