package poolstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alphixcore/internal/model"
)

func polledSnapshot(price float64, tick int) model.PoolStateSnapshot {
	return model.PoolStateSnapshot{
		Price:        price,
		Tick:         tick,
		SqrtPriceX96: "79228162514264337593543950336",
		Liquidity:    "1000000",
		HasPrice:     true,
		HasSlot:      true,
	}
}

func TestFeedStreamPriceWinsWhileConnected(t *testing.T) {
	feed := NewFeed()
	feed.ApplyPoll(polledSnapshot(1999, 100))
	feed.ApplyStream(2001)

	got := feed.Snapshot()
	assert.Equal(t, float64(2001), got.Price)
	assert.Equal(t, 100, got.Tick, "slot fields still come from the poll")
	assert.True(t, got.HasSlot)
}

func TestFeedFallsBackToPolledPriceWhenStreamDrops(t *testing.T) {
	feed := NewFeed()
	feed.ApplyStream(2001)
	feed.ApplyPoll(polledSnapshot(1999, 100))

	feed.MarkStreamDown()

	got := feed.Snapshot()
	assert.Equal(t, float64(1999), got.Price)
	assert.True(t, got.HasPrice)
}

func TestFeedStreamOnlyHasNoSlotData(t *testing.T) {
	feed := NewFeed()
	feed.ApplyStream(2001)

	got := feed.Snapshot()
	assert.Equal(t, float64(2001), got.Price)
	assert.True(t, got.HasPrice)
	assert.False(t, got.HasSlot)
}

func TestFeedPollNeverClobbersMissingFields(t *testing.T) {
	feed := NewFeed()
	feed.ApplyPoll(polledSnapshot(1999, 100))

	// A later partial poll (no slot data) keeps the previous slot fields.
	feed.ApplyPoll(model.PoolStateSnapshot{Price: 2005, HasPrice: true})

	got := feed.Snapshot()
	assert.Equal(t, float64(2005), got.Price)
	assert.Equal(t, 100, got.Tick)
	assert.True(t, got.HasSlot)
}

func TestFeedReconnectRestoresStreamPrice(t *testing.T) {
	feed := NewFeed()
	feed.ApplyPoll(polledSnapshot(1999, 100))
	feed.ApplyStream(2001)
	feed.MarkStreamDown()
	feed.ApplyStream(2010)

	assert.Equal(t, float64(2010), feed.Snapshot().Price)
}

func TestFeedEmpty(t *testing.T) {
	got := NewFeed().Snapshot()
	assert.False(t, got.HasPrice)
	assert.False(t, got.HasSlot)
	assert.Zero(t, got.Price)
}
