package chainread

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"go.uber.org/zap"

	"alphixcore/internal/chain"
	"alphixcore/internal/model"
)

// StateReaderClient reads slot0 and liquidity for a pool. It is the
// polling half of the pool-state feed and the tick source for the
// direct-position reader.
type StateReaderClient struct {
	client   *chain.Client
	registry *Registry
	logger   *zap.Logger
}

func NewStateReaderClient(client *chain.Client, registry *Registry, logger *zap.Logger) *StateReaderClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateReaderClient{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

// ReadPoolState reads the current slot state and derives the human
// price from sqrtPriceX96 adjusted by the pool's token decimals.
func (c *StateReaderClient) ReadPoolState(ctx context.Context, poolID string) (model.PoolStateSnapshot, error) {
	pool, ok := c.registry.ByID(poolID)
	if !ok {
		return model.PoolStateSnapshot{}, fmt.Errorf("unknown pool: %s", poolID)
	}

	contractABI, err := getPoolABI()
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}

	values, err := callView(ctx, c.client, contractABI, pool.Address, "slot0")
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}
	if len(values) != 7 {
		return model.PoolStateSnapshot{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrtPriceX96, err := asBigInt(values[0], "slot0.sqrtPriceX96")
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}
	tick, err := asBigInt(values[1], "slot0.tick")
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}

	values, err = callView(ctx, c.client, contractABI, pool.Address, "liquidity")
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}
	if len(values) != 1 {
		return model.PoolStateSnapshot{}, fmt.Errorf("liquidity return size %d", len(values))
	}
	liquidity, err := asBigInt(values[0], "liquidity")
	if err != nil {
		return model.PoolStateSnapshot{}, err
	}

	price := priceFromSqrtX96(sqrtPriceX96, pool.Token0.Decimals, pool.Token1.Decimals)

	return model.PoolStateSnapshot{
		Price:        price,
		Tick:         int(tick.Int64()),
		SqrtPriceX96: sqrtPriceX96.String(),
		Liquidity:    liquidity.String(),
		HasPrice:     price > 0,
		HasSlot:      true,
	}, nil
}

// priceFromSqrtX96 converts the Q64.96 sqrt price into a token1-per-
// token0 price at display precision.
func priceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	sqrt := bigToFloat(sqrtPriceX96) / math.Pow(2, 96)
	if sqrt <= 0 {
		return 0
	}
	raw := sqrt * sqrt
	return raw * math.Pow(10, float64(decimals0)-float64(decimals1))
}
