package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"walletRisk/internal/oracle"
	"walletRisk/internal/risk"
)

// ScoreConfig holds configuration for the score command.
type ScoreConfig struct {
	Wallets       string
	In            string
	Reports       string
	WalletData    string
	WalletScore   string
	PGDSN         string
	Workers       int
	ETHPriceUSD   float64
	RPCURL        string
	PriceFeed     string
	ETHVolatility float64
	VolatilitySet bool
	Etherscan     EtherscanConfig
	MetricsAddr   string
	LogLevel      string
	Protocol      risk.Params
}

// LoadScore merges config file, environment variables, and flags into ScoreConfig.
func LoadScore(cfgFile string, flags *pflag.FlagSet) (ScoreConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"wallets":      "Wallet-id.csv",
		"reports":      "./data/reports.jsonl",
		"wallet-data":  "wallet_data.csv",
		"wallet-score": "wallet_score.csv",
		"workers":      4,
		"price-feed":   oracle.ETHUSDFeed,
	})
	if err != nil {
		return ScoreConfig{}, err
	}

	params, err := ProtocolParams(v)
	if err != nil {
		return ScoreConfig{}, err
	}

	cfg := ScoreConfig{
		Wallets:       v.GetString("wallets"),
		In:            v.GetString("in"),
		Reports:       v.GetString("reports"),
		WalletData:    v.GetString("wallet-data"),
		WalletScore:   v.GetString("wallet-score"),
		PGDSN:         v.GetString("pg-dsn"),
		Workers:       v.GetInt("workers"),
		ETHPriceUSD:   v.GetFloat64("eth-price-usd"),
		RPCURL:        v.GetString("rpc"),
		PriceFeed:     v.GetString("price-feed"),
		ETHVolatility: v.GetFloat64("eth-volatility"),
		VolatilitySet: v.IsSet("eth-volatility"),
		Etherscan:     loadEtherscan(v),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
		Protocol:      params,
	}
	if cfg.Workers <= 0 {
		return ScoreConfig{}, fmt.Errorf("workers must be greater than zero")
	}

	return cfg, nil
}
