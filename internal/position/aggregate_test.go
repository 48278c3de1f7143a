package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphixcore/internal/model"
)

func directPosition(id, poolID string, amount0, amount1 float64) model.Position {
	return model.NewDirectPosition(id, poolID, "0xowner",
		model.TokenLeg{Address: "0xaaa", Symbol: "aUSDC", Amount: amount0},
		model.TokenLeg{Address: "0xbbb", Symbol: "aETH", Amount: amount1},
		model.DirectDetails{TickLower: -600, TickUpper: 600, LiquidityRaw: "1000", InRange: true},
	)
}

func vaultPosition(id, poolID string, amount0, amount1 float64) model.Position {
	return model.NewVaultPosition(id, poolID, "0xowner",
		model.TokenLeg{Address: "0xaaa", Symbol: "aUSDC", Amount: amount0},
		model.TokenLeg{Address: "0xbbb", Symbol: "aETH", Amount: amount1},
		model.VaultDetails{Token0Amount: amount0, Token1Amount: amount1},
	)
}

func valueBySum(p model.Position) float64 {
	amount0, amount1 := p.Amounts()
	return amount0 + amount1
}

func TestAggregateCaseInsensitiveFilterAndOrder(t *testing.T) {
	direct := []model.Position{directPosition("1", "0xABC", 300, 200)}
	vault := []model.Position{vaultPosition("uy-1", "0xabc", 100, 100)}

	got := Aggregate(direct, vault, "0xabc", valueBySum)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "uy-1", got[1].ID)
	assert.Equal(t, "0xabc", got[0].PoolID)
}

func TestAggregateFiltersOtherPools(t *testing.T) {
	direct := []model.Position{
		directPosition("1", "0xabc", 10, 0),
		directPosition("2", "0xdef", 99, 0),
	}

	got := Aggregate(direct, nil, "0xABC", valueBySum)

	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestAggregateIdempotent(t *testing.T) {
	direct := []model.Position{
		directPosition("1", "0xabc", 50, 0),
		directPosition("2", "0xabc", 50, 0),
		directPosition("3", "0xabc", 70, 0),
	}
	vault := []model.Position{vaultPosition("uy-1", "0xabc", 60, 0)}

	first := Aggregate(direct, vault, "0xabc", valueBySum)
	second := Aggregate(direct, vault, "0xabc", valueBySum)

	require.Equal(t, first, second)

	// Ties keep input order.
	assert.Equal(t, []string{"3", "uy-1", "1", "2"}, ids(first))
}

func TestAggregateNoDuplicateIDs(t *testing.T) {
	direct := []model.Position{directPosition("1", "0xabc", 500, 0)}
	vault := []model.Position{vaultPosition("1", "0xabc", 200, 0)}

	got := Aggregate(direct, vault, "0xabc", valueBySum)

	require.Len(t, got, 1)
	assert.True(t, got[0].IsDirect(), "direct variant wins a duplicate id")

	seen := make(map[string]bool)
	for _, p := range got {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestAggregateDoesNotMutateInputs(t *testing.T) {
	direct := []model.Position{
		directPosition("1", "0xabc", 1, 0),
		directPosition("2", "0xabc", 2, 0),
	}
	before := ids(direct)

	Aggregate(direct, nil, "0xabc", valueBySum)

	assert.Equal(t, before, ids(direct))
}

func ids(positions []model.Position) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.ID
	}
	return out
}
