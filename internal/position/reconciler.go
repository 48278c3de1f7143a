package position

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"alphixcore/internal/model"
)

// State is the reconciler lifecycle state. A failed derivation returns
// to StateIdle so the next trigger can run cleanly.
type State int

const (
	StateIdle State = iota
	StateDeriving
	StateReconciled
)

const defaultThrottle = 2000 * time.Millisecond

// Config holds the identity the reconciler derives positions for.
type Config struct {
	Owner       string
	PoolID      string
	ChainID     uint64
	NetworkMode string

	// Throttle is the minimum spacing between executed RefreshAfterAdd
	// calls. Zero means the 2000 ms default.
	Throttle time.Duration
}

// Sources groups the external collaborators the reconciler derives from.
type Sources struct {
	IDs         IDSource
	Direct      DirectReader
	Vault       VaultReader
	Invalidator CacheInvalidator
}

// Reconciler owns the merged position list for one pool view and drives
// it back into a consistent state after transactions. The list is
// replaced wholesale on every update (copy-on-write); readers never
// observe in-place mutation. In-flight derivations are tagged with a
// generation so results for a pool that is no longer active are
// discarded on arrival.
type Reconciler struct {
	cfg     Config
	sources Sources
	cache   *IDCache
	overlay *Overlay
	value   ValueFunc
	logger  *zap.Logger
	now     func() time.Time

	mu            sync.RWMutex
	poolID        string
	generation    uint64
	positions     []model.Position
	known         map[string]struct{}
	state         State
	loading       bool
	derivingNew   bool
	initialLoaded bool
	lastAdd       time.Time
}

func NewReconciler(cfg Config, sources Sources, cache *IDCache, overlay *Overlay, value ValueFunc, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = defaultThrottle
	}
	if cache == nil {
		cache = NewIDCache()
	}
	if overlay == nil {
		overlay = NewOverlay()
	}
	return &Reconciler{
		cfg:     cfg,
		sources: sources,
		cache:   cache,
		overlay: overlay,
		value:   value,
		logger:  logger,
		now:     time.Now,
		poolID:  model.CanonicalPoolID(cfg.PoolID),
		known:   make(map[string]struct{}),
	}
}

// Positions returns the current list with optimistic patches applied.
func (r *Reconciler) Positions() []model.Position {
	r.mu.RLock()
	current := r.positions
	r.mu.RUnlock()
	return r.overlay.ApplyAll(current)
}

// Loading reports whether the initial derivation is in flight.
func (r *Reconciler) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// DerivingNew reports whether a refresh-after-add derivation is in flight.
func (r *Reconciler) DerivingNew() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.derivingNew
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Overlay exposes the optimistic overlay for the view facade.
func (r *Reconciler) Overlay() *Overlay { return r.overlay }

// SetPool switches the active pool. The position list is discarded, the
// overlay cleared, and the generation bumped so in-flight derivations
// for the previous pool can never write into the new pool's state.
func (r *Reconciler) SetPool(poolID string) {
	r.mu.Lock()
	r.poolID = model.CanonicalPoolID(poolID)
	r.generation++
	r.positions = nil
	r.known = make(map[string]struct{})
	r.state = StateIdle
	r.loading = false
	r.derivingNew = false
	r.initialLoaded = false
	r.mu.Unlock()

	r.overlay.ClearAll()
}

// Refresh performs a full (initial) derivation and replaces the list.
// On a hard failure during the initial load the list resets to empty;
// a later refresh failure leaves the previous list untouched.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.state = StateDeriving
	r.loading = !r.initialLoaded
	gen := r.generation
	r.mu.Unlock()

	fresh, err := r.derive(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return model.ErrStaleGeneration
	}
	r.loading = false
	if err != nil {
		r.state = StateIdle
		if !r.initialLoaded {
			r.positions = nil
			r.known = make(map[string]struct{})
		}
		return err
	}

	r.positions = fresh
	r.known = idSet(fresh)
	r.initialLoaded = true
	r.state = StateReconciled
	return nil
}

// RefreshAfterAdd re-derives positions after an add-liquidity
// transaction. Calls arriving inside the cooldown window are dropped
// and report model.ErrThrottled. New positions are prepended and
// existing entries updated in place so table order stays stable;
// positions absent from the fresh result are kept.
func (r *Reconciler) RefreshAfterAdd(ctx context.Context) error {
	r.mu.Lock()
	if !r.lastAdd.IsZero() && r.now().Sub(r.lastAdd) < r.cfg.Throttle {
		r.mu.Unlock()
		return model.ErrThrottled
	}
	r.lastAdd = r.now()
	r.state = StateDeriving
	r.derivingNew = true
	gen := r.generation
	r.mu.Unlock()

	fresh, err := r.derive(ctx)

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return model.ErrStaleGeneration
	}
	r.derivingNew = false
	if err != nil {
		r.state = StateIdle
		r.mu.Unlock()
		return err
	}

	freshByID := make(map[string]model.Position, len(fresh))
	for _, p := range fresh {
		freshByID[p.ID] = p
	}

	merged := make([]model.Position, 0, len(r.positions)+len(fresh))
	for _, p := range fresh {
		if _, seen := r.known[p.ID]; !seen {
			merged = append(merged, p)
		}
	}
	for _, existing := range r.positions {
		if updated, ok := freshByID[existing.ID]; ok {
			merged = append(merged, updated)
		} else {
			merged = append(merged, existing)
		}
	}

	r.positions = merged
	for id := range freshByID {
		r.known[id] = struct{}{}
	}
	r.state = StateReconciled
	req := r.invalidateRequest()
	r.mu.Unlock()

	r.invalidate(ctx, req)
	for id := range freshByID {
		r.overlay.ClearUpdating(id)
	}
	return nil
}

// MutationInfo describes the confirmed transaction a refresh follows.
type MutationInfo struct {
	TxHash string
	Kind   string
}

// RefreshAfterMutation re-derives positions after a collect, decrease
// or burn. Unlike RefreshAfterAdd it removes positions absent from the
// fresh result entirely (full withdrawal) and always clears the
// optimistic fee-cleared set.
func (r *Reconciler) RefreshAfterMutation(ctx context.Context, info MutationInfo) error {
	r.mu.Lock()
	r.state = StateDeriving
	gen := r.generation
	r.mu.Unlock()

	fresh, err := r.derive(ctx)

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return model.ErrStaleGeneration
	}
	if err != nil {
		r.state = StateIdle
		r.mu.Unlock()
		return err
	}

	freshByID := make(map[string]model.Position, len(fresh))
	for _, p := range fresh {
		freshByID[p.ID] = p
	}

	merged := make([]model.Position, 0, len(fresh))
	removed := make([]string, 0)
	for _, p := range fresh {
		if _, seen := r.known[p.ID]; !seen {
			merged = append(merged, p)
		}
	}
	for _, existing := range r.positions {
		if updated, ok := freshByID[existing.ID]; ok {
			merged = append(merged, updated)
		} else {
			removed = append(removed, existing.ID)
		}
	}

	r.positions = merged
	r.known = idSet(merged)
	r.state = StateReconciled
	owner := r.cfg.Owner
	req := r.invalidateRequest()
	r.mu.Unlock()

	for _, id := range removed {
		r.cache.Remove(owner, id)
		r.overlay.Clear(id)
	}
	r.overlay.ClearFeesCleared()
	for id := range freshByID {
		r.overlay.ClearUpdating(id)
	}
	r.invalidate(ctx, req)

	if info.TxHash != "" {
		r.logger.Debug("reconciled after mutation",
			zap.String("tx", info.TxHash),
			zap.String("kind", info.Kind),
			zap.Int("removed", len(removed)),
		)
	}
	return nil
}

// derive re-reads both position sources and aggregates them for the
// active pool. Any reader error surfaces as a DerivationError; the
// caller decides what happens to the previous list.
func (r *Reconciler) derive(ctx context.Context) ([]model.Position, error) {
	r.mu.RLock()
	owner := r.cfg.Owner
	chainID := r.cfg.ChainID
	networkMode := r.cfg.NetworkMode
	poolID := r.poolID
	gen := r.generation
	r.mu.RUnlock()

	onRefreshed := func(ids []string) {
		r.cache.PutIDs(owner, ids)
		r.mu.RLock()
		stale := gen != r.generation
		r.mu.RUnlock()
		if stale {
			return
		}
		// Corrected id list arrived after a cached initial answer.
		go func() {
			if err := r.Refresh(context.Background()); err != nil {
				r.logger.Debug("background id refresh", zap.Error(err))
			}
		}()
	}

	ids, err := r.sources.IDs.LoadOwnedIDs(ctx, owner, onRefreshed)
	if err != nil {
		return nil, &model.DerivationError{Op: "owned ids", Err: err}
	}
	r.cache.PutIDs(owner, ids)

	direct, err := r.sources.Direct.DeriveFromIDs(ctx, owner, ids, chainID, r.cache.Timestamps(owner))
	if err != nil {
		return nil, &model.DerivationError{Op: "direct positions", Err: err}
	}
	for _, p := range direct {
		if p.BlockTimestamp > 0 {
			r.cache.PutTimestamp(owner, p.ID, p.BlockTimestamp)
		}
	}

	vault, err := r.sources.Vault.DeriveVaultPositions(ctx, VaultQuery{
		Owner:       owner,
		ChainID:     chainID,
		NetworkMode: networkMode,
	})
	if err != nil {
		return nil, &model.DerivationError{Op: "vault positions", Err: err}
	}

	return Aggregate(direct, vault, poolID, r.value), nil
}

func (r *Reconciler) invalidateRequest() InvalidateRequest {
	req := InvalidateRequest{
		Owner:   r.cfg.Owner,
		ChainID: r.cfg.ChainID,
		PoolID:  r.poolID,
	}
	if d0, d1 := r.overlay.PendingAmountDeltas(); d0 != 0 || d1 != 0 {
		req.OptimisticDeltas = map[string]float64{"amount0": d0, "amount1": d1}
		req.OnClear = r.overlay.ClearAmountDeltas
	}
	return req
}

// invalidate asks the off-chain aggregates to reconcile. Best-effort:
// a failure here never aborts the position merge.
func (r *Reconciler) invalidate(ctx context.Context, req InvalidateRequest) {
	if r.sources.Invalidator == nil {
		return
	}
	if err := r.sources.Invalidator.InvalidateAfterTx(ctx, req); err != nil {
		r.logger.Warn("cache invalidation failed",
			zap.String("pool", req.PoolID),
			zap.Error(err),
		)
	}
}

func idSet(positions []model.Position) map[string]struct{} {
	out := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		out[p.ID] = struct{}{}
	}
	return out
}
