package chainread

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alphixcore/internal/chain"
	"alphixcore/internal/model"
	"alphixcore/internal/position"
)

// VaultReaderClient derives positions held through each pool's vault
// hook: the owner's share balance is previewed back into token amounts.
// Vault positions have no tick range.
type VaultReaderClient struct {
	client   *chain.Client
	registry *Registry
	logger   *zap.Logger
}

func NewVaultReaderClient(client *chain.Client, registry *Registry, logger *zap.Logger) *VaultReaderClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaultReaderClient{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

// DeriveVaultPositions reads the owner's vault share balances across
// every registered pool with a vault and returns the non-empty ones.
func (c *VaultReaderClient) DeriveVaultPositions(ctx context.Context, q position.VaultQuery) ([]model.Position, error) {
	vaultContractABI, err := getVaultABI()
	if err != nil {
		return nil, err
	}

	ownerAddr := common.HexToAddress(q.Owner)
	now := uint64(time.Now().Unix())

	var out []model.Position
	for _, pool := range c.registry.Pools() {
		if pool.Vault == (common.Address{}) {
			continue
		}

		values, err := callView(ctx, c.client, vaultContractABI, pool.Vault, "balanceOf", ownerAddr)
		if err != nil {
			return nil, err
		}
		if len(values) != 1 {
			return nil, fmt.Errorf("vault balanceOf return size %d", len(values))
		}
		shares, err := asBigInt(values[0], "vault balanceOf")
		if err != nil {
			return nil, err
		}
		if shares.Sign() == 0 {
			continue
		}

		values, err = callView(ctx, c.client, vaultContractABI, pool.Vault, "previewRedeem", shares)
		if err != nil {
			return nil, err
		}
		if len(values) != 2 {
			return nil, fmt.Errorf("previewRedeem return size %d", len(values))
		}
		raw0, err := asBigInt(values[0], "previewRedeem.amount0")
		if err != nil {
			return nil, err
		}
		raw1, err := asBigInt(values[1], "previewRedeem.amount1")
		if err != nil {
			return nil, err
		}

		amount0 := scaleAmount(bigToFloat(raw0), pool.Token0.Decimals)
		amount1 := scaleAmount(bigToFloat(raw1), pool.Token1.Decimals)

		p := model.NewVaultPosition(
			vaultPositionID(pool.ID), pool.ID, q.Owner,
			model.TokenLeg{Address: pool.Token0.Address.Hex(), Symbol: pool.Token0.Symbol, Amount: amount0},
			model.TokenLeg{Address: pool.Token1.Address.Hex(), Symbol: pool.Token1.Symbol, Amount: amount1},
			model.VaultDetails{Token0Amount: amount0, Token1Amount: amount1},
		)
		p.BlockTimestamp = now
		p.LastTimestamp = now
		out = append(out, p)
	}

	return out, nil
}

// vaultPositionID keys a vault-derived position. One vault position
// exists per owner per pool, so the pool id is the natural identity.
func vaultPositionID(poolID string) string {
	return "uy-" + poolID
}
