package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestOverlayApplyDoesNotMutateOriginal(t *testing.T) {
	overlay := NewOverlay()
	original := directPosition("1", "0xabc", 100, 50)
	original.Direct.Fees0 = 3

	overlay.Set("1", Patch{FeesCleared: true, Updating: boolPtr(true)})
	patched := overlay.Apply(original)

	assert.Equal(t, float64(0), patched.Direct.Fees0)
	require.NotNil(t, patched.Direct.OptimisticUpdating)
	assert.True(t, *patched.Direct.OptimisticUpdating)

	// Authoritative record untouched.
	assert.Equal(t, float64(3), original.Direct.Fees0)
	assert.Nil(t, original.Direct.OptimisticUpdating)
}

func TestOverlayAmountDeltas(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{Amount0Delta: floatPtr(10), Amount1Delta: floatPtr(-5)})

	patched := overlay.Apply(directPosition("1", "0xabc", 100, 50))

	assert.Equal(t, float64(110), patched.Token0.Amount)
	assert.Equal(t, float64(45), patched.Token1.Amount)
}

func TestOverlayFeeFieldsNoopOnVaultPositions(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("uy-1", Patch{FeesCleared: true, Updating: boolPtr(true)})

	patched := overlay.Apply(vaultPosition("uy-1", "0xabc", 100, 50))

	assert.Nil(t, patched.Direct)
	require.NotNil(t, patched.Vault)
	assert.Equal(t, float64(100), patched.Vault.Token0Amount)
}

func TestOverlayClearAllUnmasksAuthoritativeValues(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{FeesCleared: true, Updating: boolPtr(true)})
	overlay.Set("2", Patch{Amount0Delta: floatPtr(1)})

	overlay.ClearAll()
	require.Equal(t, 0, overlay.Len())

	p := directPosition("1", "0xabc", 100, 50)
	p.Direct.Fees0 = 7
	patched := overlay.Apply(p)

	assert.Equal(t, float64(7), patched.Direct.Fees0)
	assert.Nil(t, patched.Direct.OptimisticUpdating)
}

func TestOverlayClearUpdatingKeepsOtherFields(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{FeesCleared: true, Updating: boolPtr(true)})

	overlay.ClearUpdating("1")

	patched := overlay.Apply(directPosition("1", "0xabc", 100, 50))
	assert.Nil(t, patched.Direct.OptimisticUpdating)
	assert.Equal(t, float64(0), patched.Direct.Fees0)
}

func TestOverlayClearUpdatingRemovesEmptyEntry(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{Updating: boolPtr(true)})

	overlay.ClearUpdating("1")

	assert.Equal(t, 0, overlay.Len())
}

func TestOverlayPendingAmountDeltas(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{Amount0Delta: floatPtr(10), Amount1Delta: floatPtr(-5)})
	overlay.Set("2", Patch{Amount0Delta: floatPtr(2)})
	overlay.Set("3", Patch{FeesCleared: true})

	d0, d1 := overlay.PendingAmountDeltas()
	assert.Equal(t, float64(12), d0)
	assert.Equal(t, float64(-5), d1)
}

func TestOverlayClearAmountDeltasKeepsOtherFields(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{Amount0Delta: floatPtr(10)})
	overlay.Set("2", Patch{Amount1Delta: floatPtr(3), FeesCleared: true})

	overlay.ClearAmountDeltas()

	d0, d1 := overlay.PendingAmountDeltas()
	assert.Zero(t, d0)
	assert.Zero(t, d1)
	assert.Equal(t, 1, overlay.Len(), "pure-delta entries pruned, fee marker kept")

	p := directPosition("2", "0xabc", 100, 50)
	p.Direct.Fees0 = 4
	assert.Equal(t, float64(0), overlay.Apply(p).Direct.Fees0)
}

func TestOverlayClearFeesCleared(t *testing.T) {
	overlay := NewOverlay()
	overlay.Set("1", Patch{FeesCleared: true})
	overlay.Set("2", Patch{FeesCleared: true, Amount0Delta: floatPtr(2)})

	overlay.ClearFeesCleared()

	assert.Equal(t, 1, overlay.Len())

	p := directPosition("1", "0xabc", 100, 50)
	p.Direct.Fees0 = 4
	assert.Equal(t, float64(4), overlay.Apply(p).Direct.Fees0)
}
