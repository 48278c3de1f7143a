package chart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"alphixcore/internal/model"
)

// MetricsAPI fetches the raw inputs of the series for one pool.
type MetricsAPI interface {
	DailySeries(ctx context.Context, poolID string, days int) ([]model.DayRow, []model.FeeChangeEvent, error)
}

// Series owns the chart state for the active pool. Rebuilds replace the
// point slice wholesale; a failed fetch never clobbers the last good
// series. The unclipped rows and events are retained so re-windowing on
// a viewport change re-runs the build from source instead of re-trimming
// already-trimmed data.
type Series struct {
	api    MetricsAPI
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	poolID     string
	generation uint64
	windowDays int
	fetchDays  int
	rows       []model.DayRow
	events     []model.FeeChangeEvent
	points     []model.ChartPoint
	loading    bool
}

func NewSeries(api MetricsAPI, poolID string, fetchDays, viewportWidth int, logger *zap.Logger) *Series {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetchDays <= 0 {
		fetchDays = 60
	}
	return &Series{
		api:        api,
		logger:     logger,
		now:        time.Now,
		poolID:     model.CanonicalPoolID(poolID),
		windowDays: WindowDays(viewportWidth),
		fetchDays:  fetchDays,
	}
}

// Points returns the current padded series.
func (s *Series) Points() []model.ChartPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ChartPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Loading reports whether a rebuild is in flight.
func (s *Series) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetPool switches the active pool, discarding the old series and
// bumping the generation so stale fetches cannot land.
func (s *Series) SetPool(poolID string) {
	s.mu.Lock()
	s.poolID = model.CanonicalPoolID(poolID)
	s.generation++
	s.rows = nil
	s.events = nil
	s.points = nil
	s.loading = false
	s.mu.Unlock()
}

// Rebuild fetches the raw daily rows and fee events for the active pool
// and rebuilds the padded series.
func (s *Series) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	poolID := s.poolID
	gen := s.generation
	days := s.fetchDays
	s.loading = true
	s.mu.Unlock()

	rows, events, err := s.api.DailySeries(ctx, poolID, days)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return model.ErrStaleGeneration
	}
	s.loading = false
	if err != nil {
		s.logger.Warn("chart fetch failed", zap.String("pool", poolID), zap.Error(err))
		return err
	}

	s.rows = rows
	s.events = events
	s.points = PadForWindow(Build(rows, events, s.now()), s.windowDays)
	return nil
}

// SetViewportWidth re-windows the series for a new viewport. The pad is
// recomputed from the unclipped rows so widening the window restores
// days a narrower window had trimmed.
func (s *Series) SetViewportWidth(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	windowDays := WindowDays(width)
	if windowDays == s.windowDays {
		return
	}
	s.windowDays = windowDays
	if s.rows == nil && s.events == nil {
		return
	}
	s.points = PadForWindow(Build(s.rows, s.events, s.now()), s.windowDays)
}

// PatchToday overwrites only the current day's TVL in place. Everything
// else is rebuilt wholesale.
func (s *Series) PatchToday(tvlUSD float64) {
	today := model.Day(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == 0 {
		return
	}
	last := len(s.points) - 1
	if !model.Day(s.points[last].Date).Equal(today) {
		return
	}
	out := make([]model.ChartPoint, len(s.points))
	copy(out, s.points)
	out[last].TVLUSD = tvlUSD
	s.points = out
}
