package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alphixcore/internal/api"
	"alphixcore/internal/chain"
	"alphixcore/internal/chainread"
	"alphixcore/internal/chart"
	"alphixcore/internal/config"
	"alphixcore/internal/model"
	"alphixcore/internal/poolstate"
	"alphixcore/internal/position"
	"alphixcore/internal/storage"
	"alphixcore/internal/storage/postgres"
)

func runCore(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if cfg.Owner == "" {
		return fmt.Errorf("owner address is required")
	}
	if cfg.PoolID == "" || cfg.PoolAddress == "" {
		return fmt.Errorf("pool id and pool address are required")
	}
	if cfg.PositionManager == "" {
		return fmt.Errorf("position manager address is required")
	}

	poolInfo, err := buildPoolInfo(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	rpcChainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = rpcChainID.Uint64()
	} else if rpcChainID.Uint64() != cfg.ChainID {
		return fmt.Errorf("chain id mismatch: rpc reports %s, configured %d", rpcChainID, cfg.ChainID)
	}

	registry := chainread.NewRegistry([]chainread.PoolInfo{poolInfo})
	cache := position.NewIDCache()
	overlay := position.NewOverlay()
	apiClient := api.NewClient(cfg.APIBaseURL, logger)

	stateReader := chainread.NewStateReaderClient(chainClient, registry, logger)
	manager := common.HexToAddress(cfg.PositionManager)

	feed := poolstate.NewFeed()
	valuation := func(p model.Position) float64 {
		amount0, amount1 := p.Amounts()
		snapshot := feed.Snapshot()
		if snapshot.HasPrice {
			// Valued in token1 units: enough for a stable sort order.
			return amount0*snapshot.Price + amount1
		}
		return amount0 + amount1
	}

	reconciler := position.NewReconciler(
		position.Config{
			Owner:       cfg.Owner,
			PoolID:      cfg.PoolID,
			ChainID:     cfg.ChainID,
			NetworkMode: cfg.NetworkMode,
		},
		position.Sources{
			IDs:         chainread.NewIDSourceClient(chainClient, manager, cache, logger),
			Direct:      chainread.NewDirectReaderClient(chainClient, manager, registry, stateReader, logger),
			Vault:       chainread.NewVaultReaderClient(chainClient, registry, logger),
			Invalidator: apiClient,
		},
		cache, overlay, valuation, logger,
	)
	view := position.NewView(reconciler)

	series := chart.NewSeries(apiClient, cfg.PoolID, cfg.Days, cfg.ViewportWidth, logger)
	poller := poolstate.NewPoller(stateReader, feed, cfg.PoolID, cfg.PollInterval, logger)

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
	}
	sink := storage.NewJsonlStorage(cfg.Out)

	logger.Info("poolview start",
		zap.String("pool", cfg.PoolID),
		zap.String("owner", cfg.Owner),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Bool("stream", cfg.StreamURL != ""),
		zap.Bool("postgres", store != nil),
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return poller.Run(groupCtx)
	})

	if cfg.StreamURL != "" {
		stream := poolstate.NewStream(cfg.StreamURL, cfg.PoolID, poolstate.DefaultStreamConfig(), feed, logger)
		group.Go(func() error {
			return stream.Run(groupCtx)
		})
	}

	// Position derivation and chart building are independent tasks: a
	// failure in one never cancels the other, so their errors are
	// logged rather than returned into the group.
	group.Go(func() error {
		if err := view.Refresh(groupCtx); err != nil {
			logger.Error("initial position load failed", zap.Error(err))
		}
		return nil
	})
	group.Go(func() error {
		if err := series.Rebuild(groupCtx); err != nil {
			logger.Error("initial chart build failed", zap.Error(err))
		}
		return nil
	})

	group.Go(func() error {
		return snapshotLoop(groupCtx, cfg.SnapshotInterval, view, series, sink, store, cfg.PoolID, logger)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// snapshotLoop periodically rebuilds the chart and persists the current
// view. Persistence is best-effort.
func snapshotLoop(ctx context.Context, interval time.Duration, view *position.View, series *chart.Series, sink storage.SeriesSink, store *postgres.Store, poolID string, logger *zap.Logger) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := series.Rebuild(ctx); err != nil {
			logger.Warn("chart rebuild failed", zap.Error(err))
		}

		points := series.Points()
		if err := sink.PutChartPoints(poolID, points); err != nil {
			logger.Warn("chart export failed", zap.Error(err))
		}
		if store != nil {
			if err := store.UpsertChartPoints(ctx, poolID, points); err != nil {
				logger.Warn("chart persistence failed", zap.Error(err))
			}
			if err := store.UpsertPositionSnapshots(ctx, view.Positions()); err != nil {
				logger.Warn("position persistence failed", zap.Error(err))
			}
		}
	}
}

func buildPoolInfo(cfg config.Config) (chainread.PoolInfo, error) {
	token0, err := config.ParseTokenSpec(cfg.Token0)
	if err != nil {
		return chainread.PoolInfo{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := config.ParseTokenSpec(cfg.Token1)
	if err != nil {
		return chainread.PoolInfo{}, fmt.Errorf("token1: %w", err)
	}

	info := chainread.PoolInfo{
		ID:      cfg.PoolID,
		Address: common.HexToAddress(cfg.PoolAddress),
		Token0: chainread.TokenInfo{
			Address:  common.HexToAddress(token0.Address),
			Symbol:   token0.Symbol,
			Decimals: token0.Decimals,
		},
		Token1: chainread.TokenInfo{
			Address:  common.HexToAddress(token1.Address),
			Symbol:   token1.Symbol,
			Decimals: token1.Decimals,
		},
	}
	if cfg.Vault != "" {
		info.Vault = common.HexToAddress(cfg.Vault)
	}
	return info, nil
}
