package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionsCanonicalizePoolID(t *testing.T) {
	direct := NewDirectPosition("1", "0xAbC", "0xowner", TokenLeg{}, TokenLeg{}, DirectDetails{})
	vault := NewVaultPosition("uy-1", "0xABC", "0xowner", TokenLeg{}, TokenLeg{}, VaultDetails{})

	assert.Equal(t, "0xabc", direct.PoolID)
	assert.Equal(t, "0xabc", vault.PoolID)
	assert.True(t, direct.IsDirect())
	assert.False(t, vault.IsDirect())
}

func TestAmountsPerVariant(t *testing.T) {
	direct := NewDirectPosition("1", "0xabc", "0xowner",
		TokenLeg{Amount: 10}, TokenLeg{Amount: 20}, DirectDetails{})
	vault := NewVaultPosition("uy-1", "0xabc", "0xowner",
		TokenLeg{}, TokenLeg{}, VaultDetails{Token0Amount: 3, Token1Amount: 4})

	a0, a1 := direct.Amounts()
	assert.Equal(t, float64(10), a0)
	assert.Equal(t, float64(20), a1)

	a0, a1 = vault.Amounts()
	assert.Equal(t, float64(3), a0)
	assert.Equal(t, float64(4), a1)
}

func TestCloneIsDeep(t *testing.T) {
	flag := true
	p := NewDirectPosition("1", "0xabc", "0xowner", TokenLeg{}, TokenLeg{}, DirectDetails{
		TickLower:          -100,
		OptimisticUpdating: &flag,
	})

	clone := p.Clone()
	clone.Direct.TickLower = 0
	*clone.Direct.OptimisticUpdating = false

	require.NotNil(t, p.Direct)
	assert.Equal(t, -100, p.Direct.TickLower)
	assert.True(t, *p.Direct.OptimisticUpdating)
}

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2024, 3, 10, 2, 30, 0, 0, loc) // 2024-03-09 21:30 UTC

	got := Day(in)

	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestErrorWrapping(t *testing.T) {
	inner := assert.AnError
	fetchErr := &FetchError{Endpoint: "daily series", Err: inner}
	derivErr := &DerivationError{Op: "owned ids", Err: inner}

	assert.ErrorIs(t, fetchErr, inner)
	assert.ErrorIs(t, derivErr, inner)
	assert.Contains(t, fetchErr.Error(), "daily series")
	assert.Contains(t, derivErr.Error(), "owned ids")
}
