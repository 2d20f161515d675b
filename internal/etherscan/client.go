package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"walletRisk/internal/model"
)

const (
	DefaultBaseURL = "https://api.etherscan.io/api"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 << 20
)

// ClientConfig configures the Etherscan account API client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Interval   time.Duration
	StartBlock uint64
	EndBlock   uint64
}

// Client calls the Etherscan account txlist endpoint.
type Client struct {
	cfg   ClientConfig
	http  *http.Client
	pacer *Pacer
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.EndBlock == 0 {
		cfg.EndBlock = 99999999
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		pacer: NewPacer(cfg.Interval),
	}
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// TxList returns the normal transactions of address in ascending order.
// Records that fail validation or do not involve address are dropped and
// described in the second return value.
func (c *Client) TxList(ctx context.Context, address string) ([]model.RawTransaction, []string, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, nil, err
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("startblock", strconv.FormatUint(c.cfg.StartBlock, 10))
	params.Set("endblock", strconv.FormatUint(c.cfg.EndBlock, 10))
	params.Set("sort", "asc")
	if c.cfg.APIKey != "" {
		params.Set("apikey", c.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", errPermanentf(err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request txlist: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("txlist status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			err = errPermanentf(err)
		}
		return nil, nil, err
	}

	return parseTxList(body, address)
}

func parseTxList(body []byte, address string) ([]model.RawTransaction, []string, error) {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	if parsed.Status != "1" {
		if strings.HasPrefix(strings.ToLower(parsed.Message), "no transactions found") {
			return nil, nil, nil
		}
		var detail string
		_ = json.Unmarshal(parsed.Result, &detail)
		err := fmt.Errorf("etherscan %s: %s", parsed.Message, detail)
		if !isRateLimited(detail) {
			err = errPermanentf(err)
		}
		return nil, nil, err
	}

	var records []txRecord
	if err := json.Unmarshal(parsed.Result, &records); err != nil {
		return nil, nil, fmt.Errorf("decode result: %w", err)
	}

	txs := make([]model.RawTransaction, 0, len(records))
	var skipped []string
	for i, record := range records {
		tx, err := record.toRawTransaction()
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("record %d (%s): %v", i, record.Hash, err))
			continue
		}
		if !tx.Involves(address) {
			skipped = append(skipped, fmt.Sprintf("record %d (%s): does not involve %s", i, record.Hash, address))
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

func isRateLimited(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "rate limit")
}

func errPermanentf(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

func isPermanent(err error) bool {
	return errors.Is(err, errPermanent)
}
