package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alphixcore/internal/model"
)

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertChartPoints inserts or updates the daily series for a pool.
func (s *Store) UpsertChartPoints(ctx context.Context, poolID string, points []model.ChartPoint) error {
	if len(points) == 0 {
		return nil
	}
	canonical := model.CanonicalPoolID(poolID)

	batch := &pgx.Batch{}
	for _, point := range points {
		batch.Queue(`
			INSERT INTO pool_chart_points (
				pool_id, day, volume_usd, tvl_usd, activity_ratio, ema_target, fee_pct, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (pool_id, day)
			DO UPDATE SET
				volume_usd = EXCLUDED.volume_usd,
				tvl_usd = EXCLUDED.tvl_usd,
				activity_ratio = EXCLUDED.activity_ratio,
				ema_target = EXCLUDED.ema_target,
				fee_pct = EXCLUDED.fee_pct,
				updated_at = now()
		`,
			canonical,
			point.Date,
			point.VolumeUSD,
			point.TVLUSD,
			point.ActivityRatio,
			point.EMATarget,
			point.FeePct,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPositionSnapshots inserts or updates the aggregated position
// view for an owner.
func (s *Store) UpsertPositionSnapshots(ctx context.Context, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range positions {
		amount0, amount1 := p.Amounts()
		batch.Queue(`
			INSERT INTO position_snapshots (
				position_id, pool_id, owner, kind, token0_symbol, token1_symbol,
				amount0, amount1, last_ts, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (position_id)
			DO UPDATE SET
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				last_ts = EXCLUDED.last_ts,
				updated_at = now()
		`,
			p.ID,
			p.PoolID,
			p.Owner,
			string(p.Kind),
			p.Token0.Symbol,
			p.Token1.Symbol,
			amount0,
			amount1,
			int64(p.LastTimestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
