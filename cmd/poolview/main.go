package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolview",
		Short:        "Pool position and market-data synchronization core",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the synchronization core for a pool and owner",
		RunE:  runCore,
	}

	runCmd.Flags().String("rpc", "", "chain RPC URL")
	runCmd.Flags().String("api", "", "metrics API base URL")
	runCmd.Flags().String("stream", "", "pool metrics websocket URL (optional)")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshot persistence (optional)")
	runCmd.Flags().String("out", "./data/chart.jsonl", "chart series JSONL path")
	runCmd.Flags().String("owner", "", "connected wallet address")
	runCmd.Flags().Uint64("chain-id", 0, "chain id")
	runCmd.Flags().String("network-mode", "mainnet", "network mode (mainnet, testnet)")
	runCmd.Flags().String("position-manager", "", "position manager contract address")
	runCmd.Flags().String("pool-id", "", "pool id")
	runCmd.Flags().String("pool-address", "", "pool contract address")
	runCmd.Flags().String("token0", "", "token0 spec (address:symbol:decimals)")
	runCmd.Flags().String("token1", "", "token1 spec (address:symbol:decimals)")
	runCmd.Flags().String("vault", "", "vault hook address (optional)")
	runCmd.Flags().Int("days", 60, "days of chart history to fetch")
	runCmd.Flags().Int("viewport-width", 1600, "viewport width driving the chart window")
	runCmd.Flags().Duration("poll-interval", 15*time.Second, "pool state poll interval")
	runCmd.Flags().Duration("snapshot-interval", 5*time.Minute, "snapshot persistence interval")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Fetch and build the chart series once",
		RunE:  runChart,
	}

	chartCmd.Flags().String("api", "", "metrics API base URL")
	chartCmd.Flags().String("pool-id", "", "pool id")
	chartCmd.Flags().Int("days", 60, "days of chart history to fetch")
	chartCmd.Flags().Int("viewport-width", 1600, "viewport width driving the chart window")
	chartCmd.Flags().String("out", "./data/chart.jsonl", "chart series JSONL path")
	chartCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(chartCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
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
