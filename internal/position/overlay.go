package position

import (
	"sync"
	"time"

	"alphixcore/internal/model"
)

// Patch is a partial optimistic mutation for one position. Nil fields
// are left untouched when the patch is applied.
type Patch struct {
	Amount0Delta *float64
	Amount1Delta *float64
	FeesCleared  bool
	Updating     *bool
}

type overlayEntry struct {
	patch   Patch
	created time.Time
}

// Overlay holds short-lived optimistic mutations keyed by position id.
// It is a copy-on-write patch map: the authoritative position list is
// never mutated, patches are merged onto clones at read time. The
// overlay performs no I/O.
type Overlay struct {
	mu      sync.RWMutex
	entries map[string]overlayEntry
	now     func() time.Time
}

func NewOverlay() *Overlay {
	return &Overlay{
		entries: make(map[string]overlayEntry),
		now:     time.Now,
	}
}

// Set stores or replaces the patch for a position id.
func (o *Overlay) Set(id string, p Patch) {
	o.mu.Lock()
	o.entries[id] = overlayEntry{patch: p, created: o.now()}
	o.mu.Unlock()
}

// Clear removes the patch for one position id. Entries must be removed,
// not just ignored, once an authoritative re-fetch has completed, so a
// stale patch can never mask a legitimate zero value later.
func (o *Overlay) Clear(id string) {
	o.mu.Lock()
	delete(o.entries, id)
	o.mu.Unlock()
}

// ClearAll removes every entry.
func (o *Overlay) ClearAll() {
	o.mu.Lock()
	o.entries = make(map[string]overlayEntry)
	o.mu.Unlock()
}

// ClearUpdating drops the updating marker for one id, keeping any
// remaining patch fields.
func (o *Overlay) ClearUpdating(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.entries[id]
	if !ok {
		return
	}
	entry.patch.Updating = nil
	if entry.patch.isZero() {
		delete(o.entries, id)
		return
	}
	o.entries[id] = entry
}

// ClearFeesCleared drops every fees-cleared marker.
func (o *Overlay) ClearFeesCleared() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, entry := range o.entries {
		if !entry.patch.FeesCleared {
			continue
		}
		entry.patch.FeesCleared = false
		if entry.patch.isZero() {
			delete(o.entries, id)
			continue
		}
		o.entries[id] = entry
	}
}

// Apply merges the patch for the position's id onto a clone of the
// position. Positions without an entry are returned unchanged. Fee and
// updating fields are a no-op for vault-derived positions, which have
// no uncollected-fee concept.
func (o *Overlay) Apply(p model.Position) model.Position {
	o.mu.RLock()
	entry, ok := o.entries[p.ID]
	o.mu.RUnlock()
	if !ok {
		return p
	}

	out := p.Clone()
	patch := entry.patch

	if patch.Amount0Delta != nil {
		out.Token0.Amount += *patch.Amount0Delta
		if out.Vault != nil {
			out.Vault.Token0Amount += *patch.Amount0Delta
		}
	}
	if patch.Amount1Delta != nil {
		out.Token1.Amount += *patch.Amount1Delta
		if out.Vault != nil {
			out.Vault.Token1Amount += *patch.Amount1Delta
		}
	}

	if out.Direct != nil {
		if patch.FeesCleared {
			out.Direct.Fees0 = 0
			out.Direct.Fees1 = 0
		}
		if patch.Updating != nil {
			flag := *patch.Updating
			out.Direct.OptimisticUpdating = &flag
		}
	}

	return out
}

// ApplyAll maps Apply over a position list into a fresh slice.
func (o *Overlay) ApplyAll(positions []model.Position) []model.Position {
	out := make([]model.Position, len(positions))
	for i, p := range positions {
		out[i] = o.Apply(p)
	}
	return out
}

// ClearAmountDeltas drops every pending amount patch, keeping other
// patch fields.
func (o *Overlay) ClearAmountDeltas() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, entry := range o.entries {
		if entry.patch.Amount0Delta == nil && entry.patch.Amount1Delta == nil {
			continue
		}
		entry.patch.Amount0Delta = nil
		entry.patch.Amount1Delta = nil
		if entry.patch.isZero() {
			delete(o.entries, id)
			continue
		}
		o.entries[id] = entry
	}
}

// PendingAmountDeltas sums the outstanding optimistic amount deltas
// across all entries, for reporting to the off-chain aggregates.
func (o *Overlay) PendingAmountDeltas() (amount0, amount1 float64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, entry := range o.entries {
		if entry.patch.Amount0Delta != nil {
			amount0 += *entry.patch.Amount0Delta
		}
		if entry.patch.Amount1Delta != nil {
			amount1 += *entry.patch.Amount1Delta
		}
	}
	return amount0, amount1
}

// Len reports the number of live entries.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}

func (p Patch) isZero() bool {
	return p.Amount0Delta == nil && p.Amount1Delta == nil && !p.FeesCleared && p.Updating == nil
}
