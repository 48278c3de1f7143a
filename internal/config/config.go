package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TokenSpec is one pool token parsed from "address:symbol:decimals".
type TokenSpec struct {
	Address  string
	Symbol   string
	Decimals uint8
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	APIBaseURL      string
	StreamURL       string
	PGDSN           string
	Out             string
	Owner           string
	ChainID         uint64
	NetworkMode     string
	PositionManager string

	PoolID      string
	PoolAddress string
	Token0      string
	Token1      string
	Vault       string

	Days             int
	ViewportWidth    int
	PollInterval     time.Duration
	SnapshotInterval time.Duration
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network-mode", "mainnet")
	v.SetDefault("days", 60)
	v.SetDefault("viewport-width", 1600)
	v.SetDefault("poll-interval", 15*time.Second)
	v.SetDefault("snapshot-interval", 5*time.Minute)
	v.SetDefault("out", "./data/chart.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:           v.GetString("rpc"),
		APIBaseURL:       v.GetString("api"),
		StreamURL:        v.GetString("stream"),
		PGDSN:            v.GetString("pg-dsn"),
		Out:              v.GetString("out"),
		Owner:            v.GetString("owner"),
		ChainID:          v.GetUint64("chain-id"),
		NetworkMode:      v.GetString("network-mode"),
		PositionManager:  v.GetString("position-manager"),
		PoolID:           v.GetString("pool-id"),
		PoolAddress:      v.GetString("pool-address"),
		Token0:           v.GetString("token0"),
		Token1:           v.GetString("token1"),
		Vault:            v.GetString("vault"),
		Days:             v.GetInt("days"),
		ViewportWidth:    v.GetInt("viewport-width"),
		PollInterval:     v.GetDuration("poll-interval"),
		SnapshotInterval: v.GetDuration("snapshot-interval"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// ParseTokenSpec parses an "address:symbol:decimals" token flag.
func ParseTokenSpec(input string) (TokenSpec, error) {
	parts := strings.Split(strings.TrimSpace(input), ":")
	if len(parts) != 3 {
		return TokenSpec{}, fmt.Errorf("token spec must be address:symbol:decimals, got %q", input)
	}
	decimals, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return TokenSpec{}, fmt.Errorf("token decimals: %w", err)
	}
	return TokenSpec{
		Address:  strings.TrimSpace(parts[0]),
		Symbol:   strings.TrimSpace(parts[1]),
		Decimals: uint8(decimals),
	}, nil
}
