package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"walletRisk/internal/etherscan"
)

// EnvPrefix prefixes every environment variable read by the loaders.
const EnvPrefix = "RISKSCORE"

// EtherscanConfig holds settings of the explorer client and its cache.
type EtherscanConfig struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
	RedisURL     string
	RedisPrefix  string
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("etherscan-url", etherscan.DefaultBaseURL)
	v.SetDefault("etherscan-timeout", 10*time.Second)
	v.SetDefault("etherscan-interval", etherscan.DefaultInterval)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("cache-ttl", time.Hour)
	v.SetDefault("redis-prefix", "riskscore:")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.BindEnv("etherscan-api-key", EnvPrefix+"_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func loadEtherscan(v *viper.Viper) EtherscanConfig {
	return EtherscanConfig{
		APIKey:       strings.TrimSpace(v.GetString("etherscan-api-key")),
		BaseURL:      v.GetString("etherscan-url"),
		Timeout:      v.GetDuration("etherscan-timeout"),
		Interval:     v.GetDuration("etherscan-interval"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		CacheTTL:     v.GetDuration("cache-ttl"),
		RedisURL:     v.GetString("redis-url"),
		RedisPrefix:  v.GetString("redis-prefix"),
	}
}
