package position

import (
	"context"

	"alphixcore/internal/model"
)

// View is the read-only surface handed to the UI layer. All mutation
// goes through the reconciler it wraps.
type View struct {
	r *Reconciler
}

func NewView(r *Reconciler) *View {
	return &View{r: r}
}

// Positions returns the aggregated list with optimistic patches applied.
func (v *View) Positions() []model.Position { return v.r.Positions() }

// Loading reports whether the initial load is in flight.
func (v *View) Loading() bool { return v.r.Loading() }

// DerivingNew reports whether a post-add derivation is in flight.
func (v *View) DerivingNew() bool { return v.r.DerivingNew() }

// Refresh re-derives the full position set.
func (v *View) Refresh(ctx context.Context) error { return v.r.Refresh(ctx) }

// RefreshAfterAdd reconciles after an add-liquidity transaction.
func (v *View) RefreshAfterAdd(ctx context.Context) error { return v.r.RefreshAfterAdd(ctx) }

// RefreshAfterMutation reconciles after a collect, decrease or burn.
func (v *View) RefreshAfterMutation(ctx context.Context, info MutationInfo) error {
	return v.r.RefreshAfterMutation(ctx, info)
}

// SetOptimistic layers a local patch over one position ahead of
// transaction confirmation.
func (v *View) SetOptimistic(id string, p Patch) { v.r.Overlay().Set(id, p) }

// ClearOptimistic removes the patch for one position.
func (v *View) ClearOptimistic(id string) { v.r.Overlay().Clear(id) }
