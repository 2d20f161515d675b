package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "riskscore",
		Short:        "Compound V2 wallet risk scoring",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download wallet transaction histories from Etherscan",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("wallets", "Wallet-id.csv", "input CSV with a wallet_id column")
	fetchCmd.Flags().String("out", "./data/transactions.jsonl", "output histories JSONL")
	fetchCmd.Flags().Uint64("batch-size", 20, "wallets per checkpoint")
	fetchCmd.Flags().String("state-file", "./data/fetch_state.json", "local state file, ignored when --pg-dsn is set")
	fetchCmd.Flags().String("pg-dsn", "", "Postgres DSN for runner state")
	fetchCmd.Flags().String("state-name", "fetch", "runner state name in Postgres")
	addEtherscanFlags(fetchCmd)
	fetchCmd.Flags().String("metrics-addr", "", "Prometheus listen address (e.g. :9102)")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score wallets and write reports",
		RunE:  runScore,
	}

	scoreCmd.Flags().String("wallets", "Wallet-id.csv", "input CSV with a wallet_id column")
	scoreCmd.Flags().String("in", "", "histories JSONL from fetch; empty means fetch live")
	scoreCmd.Flags().String("reports", "./data/reports.jsonl", "output reports JSONL")
	scoreCmd.Flags().String("wallet-data", "wallet_data.csv", "output wallet data CSV")
	scoreCmd.Flags().String("wallet-score", "wallet_score.csv", "output wallet score CSV")
	scoreCmd.Flags().String("pg-dsn", "", "Postgres DSN for report persistence")
	scoreCmd.Flags().Int("workers", 4, "concurrent wallets")
	scoreCmd.Flags().Float64("eth-price-usd", 0, "static ETH/USD price; takes precedence over --rpc")
	scoreCmd.Flags().String("rpc", "", "Ethereum RPC URL for Chainlink prices")
	scoreCmd.Flags().String("price-feed", "", "Chainlink ETH/USD aggregator address")
	scoreCmd.Flags().Float64("eth-volatility", 0, "ETH volatility in percent; unset means no market signal")
	addEtherscanFlags(scoreCmd)
	scoreCmd.Flags().String("metrics-addr", "", "Prometheus listen address (e.g. :9102)")
	scoreCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scoreCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEtherscanFlags(cmd *cobra.Command) {
	cmd.Flags().String("etherscan-api-key", "", "Etherscan API key (or ETHERSCAN_API_KEY)")
	cmd.Flags().String("etherscan-url", "https://api.etherscan.io/api", "Etherscan API endpoint")
	cmd.Flags().Duration("etherscan-interval", 200*time.Millisecond, "minimum interval between live calls")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Duration("cache-ttl", time.Hour, "cache TTL of fetched histories")
	cmd.Flags().String("redis-url", "", "Redis URL for the history cache; empty uses memory")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
