package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alphixcore/internal/api"
	"alphixcore/internal/chart"
	"alphixcore/internal/config"
	"alphixcore/internal/storage"
)

func runChart(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if cfg.PoolID == "" {
		return fmt.Errorf("pool id is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiClient := api.NewClient(cfg.APIBaseURL, logger)

	rows, events, err := apiClient.DailySeries(ctx, cfg.PoolID, cfg.Days)
	if err != nil {
		return err
	}

	windowDays := chart.WindowDays(cfg.ViewportWidth)
	points := chart.PadForWindow(chart.Build(rows, events, time.Now()), windowDays)

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.PutChartPoints(cfg.PoolID, points); err != nil {
		return err
	}

	logger.Info("chart build complete",
		zap.String("pool", cfg.PoolID),
		zap.Int("rows", len(rows)),
		zap.Int("fee_events", len(events)),
		zap.Int("window_days", windowDays),
		zap.Int("points", len(points)),
		zap.String("out", cfg.Out),
	)

	return nil
}
