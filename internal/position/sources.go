package position

import (
	"context"

	"alphixcore/internal/model"
)

// IDSource loads the position ids owned by an address. Implementations
// may answer from a cache first and deliver a corrected list through
// onRefreshed once a background re-read completes.
type IDSource interface {
	LoadOwnedIDs(ctx context.Context, owner string, onRefreshed func([]string)) ([]string, error)
}

// DirectReader derives directly-owned positions from their ids via
// chain reads. knownTimestamps carries previously observed creation
// timestamps so unchanged positions keep a stable BlockTimestamp.
type DirectReader interface {
	DeriveFromIDs(ctx context.Context, owner string, ids []string, chainID uint64, knownTimestamps map[string]uint64) ([]model.Position, error)
}

// VaultQuery identifies the owner whose vault-derived positions to read.
type VaultQuery struct {
	Owner       string
	ChainID     uint64
	NetworkMode string
}

// VaultReader derives positions held through the vault hook.
type VaultReader interface {
	DeriveVaultPositions(ctx context.Context, q VaultQuery) ([]model.Position, error)
}

// InvalidateRequest asks the off-chain aggregate caches to reconcile
// after a confirmed transaction.
type InvalidateRequest struct {
	Owner   string
	ChainID uint64
	PoolID  string

	// OptimisticDeltas carries the summed pending amount patches
	// ("amount0"/"amount1") so the collaborator can adjust TVL and
	// volume aggregates before the authoritative re-index lands.
	OptimisticDeltas map[string]float64

	OnPositionsReloaded func()

	// OnClear is invoked once the collaborator has absorbed
	// OptimisticDeltas, so the caller can drop the patches behind them.
	OnClear func()
}

// CacheInvalidator reconciles off-chain aggregates after a transaction.
// Calls are best-effort: the reconciler tolerates failure.
type CacheInvalidator interface {
	InvalidateAfterTx(ctx context.Context, req InvalidateRequest) error
}
