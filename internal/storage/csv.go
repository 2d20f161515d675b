package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"walletRisk/internal/model"
)

// WalletColumn is the header of the wallet address column in input and output CSVs.
const WalletColumn = "wallet_id"

var (
	walletDataHeader  = []string{WalletColumn, "score", "transaction_count", "borrow_count", "liquidation_count", "collateral_ratio", "borrowed_value"}
	walletScoreHeader = []string{WalletColumn, "score"}
)

// ReadWallets returns the wallet_id column of a CSV file, skipping blank cells.
func ReadWallets(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wallets: %w", err)
	}
	defer file.Close()
	return readWallets(file)
}

func readWallets(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("wallets file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), WalletColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found", WalletColumn)
	}

	var wallets []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col >= len(row) {
			continue
		}
		if w := strings.TrimSpace(row[col]); w != "" {
			wallets = append(wallets, w)
		}
	}
	return wallets, nil
}

// CSVReports writes wallet_data.csv and wallet_score.csv. Each call replaces both files.
// Wallets that could not be scored get an empty score and zero features.
type CSVReports struct {
	DataPath  string
	ScorePath string
}

func (s CSVReports) PutOutcomes(_ context.Context, outcomes []model.ScoreOutcome) error {
	if s.DataPath != "" {
		if err := writeCSV(s.DataPath, walletDataHeader, outcomes, dataRow); err != nil {
			return err
		}
	}
	if s.ScorePath != "" {
		if err := writeCSV(s.ScorePath, walletScoreHeader, outcomes, scoreRow); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, header []string, outcomes []model.ScoreOutcome, row func(model.ScoreOutcome) []string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range outcomes {
		if err := writer.Write(row(o)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func scoreRow(o model.ScoreOutcome) []string {
	if o.Report == nil {
		return []string{o.WalletAddress, ""}
	}
	return []string{o.WalletAddress, strconv.Itoa(o.Report.Score)}
}

func dataRow(o model.ScoreOutcome) []string {
	if o.Report == nil {
		return []string{o.WalletAddress, "", "0", "0", "0", "0", "0"}
	}
	fv := o.Report.FeatureVector
	return []string{
		o.WalletAddress,
		strconv.Itoa(o.Report.Score),
		strconv.Itoa(fv.TxCount),
		strconv.Itoa(fv.BorrowCount),
		strconv.Itoa(fv.LiquidationCount),
		formatFloat(fv.CollateralRatio),
		formatFloat(fv.BorrowedValueUSD),
	}
}
