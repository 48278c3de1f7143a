package poolstate

import (
	"sync"

	"alphixcore/internal/model"
)

// Feed assembles the live pool state from two racing sources: a
// streaming metrics channel that only carries price, and a periodic
// poll that supplies tick, liquidity and sqrt price. The streaming
// value wins for price while the stream is connected; neither source
// ever clobbers fields it has no data for.
type Feed struct {
	mu          sync.RWMutex
	streamPrice float64
	streamUp    bool
	polled      model.PoolStateSnapshot
}

func NewFeed() *Feed {
	return &Feed{}
}

// ApplyStream records a price from the streaming source and marks the
// stream connected.
func (f *Feed) ApplyStream(price float64) {
	f.mu.Lock()
	f.streamPrice = price
	f.streamUp = true
	f.mu.Unlock()
}

// MarkStreamDown demotes the feed to the polled price until the stream
// reconnects.
func (f *Feed) MarkStreamDown() {
	f.mu.Lock()
	f.streamUp = false
	f.mu.Unlock()
}

// ApplyPoll merges a polled snapshot. Slot fields always come from the
// poll; the polled price is kept as the fallback for when the stream
// drops.
func (f *Feed) ApplyPoll(s model.PoolStateSnapshot) {
	f.mu.Lock()
	if s.HasSlot {
		f.polled.Tick = s.Tick
		f.polled.SqrtPriceX96 = s.SqrtPriceX96
		f.polled.Liquidity = s.Liquidity
		f.polled.HasSlot = true
	}
	if s.HasPrice {
		f.polled.Price = s.Price
		f.polled.HasPrice = true
	}
	f.mu.Unlock()
}

// Snapshot composes the current merged state.
func (f *Feed) Snapshot() model.PoolStateSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := f.polled
	if f.streamUp {
		out.Price = f.streamPrice
		out.HasPrice = true
	}
	return out
}
