package chainread

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alphixcore/internal/chain"
	"alphixcore/internal/model"
)

// DirectReaderClient derives directly-owned range positions from the
// position manager. Token amounts and uncollected fees are computed at
// display precision from the position's liquidity and the pool's
// current tick.
type DirectReaderClient struct {
	client   *chain.Client
	manager  common.Address
	registry *Registry
	state    *StateReaderClient
	logger   *zap.Logger
}

func NewDirectReaderClient(client *chain.Client, manager common.Address, registry *Registry, state *StateReaderClient, logger *zap.Logger) *DirectReaderClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectReaderClient{
		client:   client,
		manager:  manager,
		registry: registry,
		state:    state,
		logger:   logger,
	}
}

type rawPosition struct {
	token0      common.Address
	token1      common.Address
	fee         uint32
	tickLower   int
	tickUpper   int
	liquidity   *big.Int
	tokensOwed0 *big.Int
	tokensOwed1 *big.Int
}

// DeriveFromIDs reads each id from the position manager and normalizes
// it. Positions on pools not present in the registry are skipped with a
// warning; a failed chain read fails the whole derivation.
func (c *DirectReaderClient) DeriveFromIDs(ctx context.Context, owner string, ids []string, chainID uint64, knownTimestamps map[string]uint64) ([]model.Position, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	now := c.chainNow(ctx)
	ticks := make(map[string]int)

	out := make([]model.Position, 0, len(ids))
	for _, id := range ids {
		raw, err := c.readPosition(ctx, id)
		if err != nil {
			return nil, err
		}

		pool, ok := c.registry.ByTokens(raw.token0, raw.token1)
		if !ok {
			c.logger.Warn("position on unregistered pool",
				zap.String("id", id),
				zap.String("token0", raw.token0.Hex()),
				zap.String("token1", raw.token1.Hex()),
			)
			continue
		}

		currentTick, ok := ticks[pool.ID]
		if !ok {
			snapshot, err := c.state.ReadPoolState(ctx, pool.ID)
			if err != nil {
				return nil, err
			}
			currentTick = snapshot.Tick
			ticks[pool.ID] = currentTick
		}

		amount0, amount1 := amountsForLiquidity(raw.liquidity, raw.tickLower, raw.tickUpper, currentTick)
		blockTS := knownTimestamps[id]
		if blockTS == 0 {
			blockTS = now
		}

		p := model.NewDirectPosition(id, pool.ID, owner,
			model.TokenLeg{
				Address: pool.Token0.Address.Hex(),
				Symbol:  pool.Token0.Symbol,
				Amount:  scaleAmount(amount0, pool.Token0.Decimals),
			},
			model.TokenLeg{
				Address: pool.Token1.Address.Hex(),
				Symbol:  pool.Token1.Symbol,
				Amount:  scaleAmount(amount1, pool.Token1.Decimals),
			},
			model.DirectDetails{
				TickLower:    raw.tickLower,
				TickUpper:    raw.tickUpper,
				LiquidityRaw: raw.liquidity.String(),
				InRange:      raw.tickLower <= currentTick && currentTick < raw.tickUpper,
				Fees0:        scaleAmount(bigToFloat(raw.tokensOwed0), pool.Token0.Decimals),
				Fees1:        scaleAmount(bigToFloat(raw.tokensOwed1), pool.Token1.Decimals),
			},
		)
		p.BlockTimestamp = blockTS
		p.LastTimestamp = now
		out = append(out, p)
	}

	return out, nil
}

// chainNow reads the head block timestamp so positions without a known
// creation timestamp follow chain time rather than the wall clock. The
// wall clock remains the last resort when the head read fails.
func (c *DirectReaderClient) chainNow(ctx context.Context) uint64 {
	head, err := c.client.LatestBlockNumber(ctx)
	if err == nil {
		ts, tsErr := c.client.BlockTimestamp(ctx, head)
		if tsErr == nil {
			return ts
		}
		err = tsErr
	}
	c.logger.Debug("head timestamp unavailable", zap.Error(err))
	return uint64(time.Now().Unix())
}

func (c *DirectReaderClient) readPosition(ctx context.Context, id string) (rawPosition, error) {
	managerABI, err := getManagerABI()
	if err != nil {
		return rawPosition{}, err
	}

	tokenID, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return rawPosition{}, fmt.Errorf("invalid position id: %s", id)
	}

	values, err := callView(ctx, c.client, managerABI, c.manager, "positions", tokenID)
	if err != nil {
		return rawPosition{}, err
	}
	if len(values) != 12 {
		return rawPosition{}, fmt.Errorf("positions return size %d", len(values))
	}

	token0, ok0 := values[2].(common.Address)
	token1, ok1 := values[3].(common.Address)
	if !ok0 || !ok1 {
		return rawPosition{}, fmt.Errorf("positions token fields have unexpected types")
	}

	fee, err := asBigInt(values[4], "positions.fee")
	if err != nil {
		return rawPosition{}, err
	}
	tickLower, err := asBigInt(values[5], "positions.tickLower")
	if err != nil {
		return rawPosition{}, err
	}
	tickUpper, err := asBigInt(values[6], "positions.tickUpper")
	if err != nil {
		return rawPosition{}, err
	}
	liquidity, err := asBigInt(values[7], "positions.liquidity")
	if err != nil {
		return rawPosition{}, err
	}
	owed0, err := asBigInt(values[10], "positions.tokensOwed0")
	if err != nil {
		return rawPosition{}, err
	}
	owed1, err := asBigInt(values[11], "positions.tokensOwed1")
	if err != nil {
		return rawPosition{}, err
	}

	return rawPosition{
		token0:      token0,
		token1:      token1,
		fee:         uint32(fee.Uint64()),
		tickLower:   int(tickLower.Int64()),
		tickUpper:   int(tickUpper.Int64()),
		liquidity:   liquidity,
		tokensOwed0: owed0,
		tokensOwed1: owed1,
	}, nil
}

// amountsForLiquidity converts a liquidity amount and tick range into
// raw token amounts at float precision, which is sufficient for the
// display values this core produces.
func amountsForLiquidity(liquidity *big.Int, tickLower, tickUpper, currentTick int) (amount0, amount1 float64) {
	l := bigToFloat(liquidity)
	if l == 0 || tickLower >= tickUpper {
		return 0, 0
	}

	sqrtLower := math.Pow(1.0001, float64(tickLower)/2)
	sqrtUpper := math.Pow(1.0001, float64(tickUpper)/2)
	sqrtCurrent := math.Pow(1.0001, float64(currentTick)/2)

	switch {
	case currentTick < tickLower:
		amount0 = l * (1/sqrtLower - 1/sqrtUpper)
	case currentTick >= tickUpper:
		amount1 = l * (sqrtUpper - sqrtLower)
	default:
		amount0 = l * (1/sqrtCurrent - 1/sqrtUpper)
		amount1 = l * (sqrtCurrent - sqrtLower)
	}
	return amount0, amount1
}

func scaleAmount(raw float64, decimals uint8) float64 {
	if decimals == 0 {
		return raw
	}
	return raw / math.Pow(10, float64(decimals))
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
