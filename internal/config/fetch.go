package config

import "github.com/spf13/pflag"

// FetchConfig holds configuration for the fetch command.
type FetchConfig struct {
	Wallets     string
	Out         string
	BatchSize   uint64
	StateFile   string
	PGDSN       string
	StateName   string
	Etherscan   EtherscanConfig
	MetricsAddr string
	LogLevel    string
}

// LoadFetch merges config file, environment variables, and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"wallets":    "Wallet-id.csv",
		"out":        "./data/transactions.jsonl",
		"batch-size": uint64(20),
		"state-file": "./data/fetch_state.json",
		"state-name": "fetch",
	})
	if err != nil {
		return FetchConfig{}, err
	}

	cfg := FetchConfig{
		Wallets:     v.GetString("wallets"),
		Out:         v.GetString("out"),
		BatchSize:   v.GetUint64("batch-size"),
		StateFile:   v.GetString("state-file"),
		PGDSN:       v.GetString("pg-dsn"),
		StateName:   v.GetString("state-name"),
		Etherscan:   loadEtherscan(v),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
