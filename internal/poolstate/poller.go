package poolstate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"alphixcore/internal/model"
)

// StateReader reads the authoritative pool slot state. Tick, liquidity
// and sqrt price are only ever supplied through this path; the stream
// is metrics-only.
type StateReader interface {
	ReadPoolState(ctx context.Context, poolID string) (model.PoolStateSnapshot, error)
}

// Poller periodically refreshes the polled half of the feed.
type Poller struct {
	reader   StateReader
	feed     *Feed
	poolID   string
	interval time.Duration
	logger   *zap.Logger
}

func NewPoller(reader StateReader, feed *Feed, poolID string, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Poller{
		reader:   reader,
		feed:     feed,
		poolID:   model.CanonicalPoolID(poolID),
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is canceled. Poll failures are logged and
// the previous snapshot stays in place.
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	snapshot, err := p.reader.ReadPoolState(ctx, p.poolID)
	if err != nil {
		p.logger.Warn("pool state poll failed", zap.String("pool", p.poolID), zap.Error(err))
		return
	}
	p.feed.ApplyPoll(snapshot)
}
