package model

import "strings"

// PositionKind discriminates the two position variants.
type PositionKind string

const (
	// KindDirect is a directly-owned concentrated range position.
	KindDirect PositionKind = "direct"
	// KindVaultDerived is a position held through a yield-routing vault hook.
	KindVaultDerived PositionKind = "vault"
)

// TokenLeg is one side of a position.
type TokenLeg struct {
	Address string  `json:"address"`
	Symbol  string  `json:"symbol"`
	Amount  float64 `json:"amount"`
}

// DirectDetails carries fields only a directly-owned range position has.
type DirectDetails struct {
	TickLower    int    `json:"tick_lower"`
	TickUpper    int    `json:"tick_upper"`
	LiquidityRaw string `json:"liquidity_raw"`
	InRange      bool   `json:"in_range"`
	Fees0        float64 `json:"fees0"`
	Fees1        float64 `json:"fees1"`

	// OptimisticUpdating is transient UI state, nil when no local
	// mutation is pending for this position.
	OptimisticUpdating *bool `json:"optimistic_updating,omitempty"`
}

// VaultDetails carries fields only a vault-derived position has.
type VaultDetails struct {
	Token0Amount float64 `json:"token0_amount"`
	Token1Amount float64 `json:"token1_amount"`
}

// Position is a tagged union over the direct and vault-derived variants.
// Exactly one of Direct or Vault is non-nil, matching Kind. The tag is
// immutable once the position has been fetched.
type Position struct {
	Kind           PositionKind   `json:"kind"`
	ID             string         `json:"id"`
	PoolID         string         `json:"pool_id"`
	Owner          string         `json:"owner"`
	Token0         TokenLeg       `json:"token0"`
	Token1         TokenLeg       `json:"token1"`
	BlockTimestamp uint64         `json:"block_timestamp"`
	LastTimestamp  uint64         `json:"last_timestamp"`
	Direct         *DirectDetails `json:"direct,omitempty"`
	Vault          *VaultDetails  `json:"vault,omitempty"`
}

// NewDirectPosition builds a direct-variant position. The pool id is
// canonicalized to lower case at this write boundary so readers never
// need case-insensitive comparison.
func NewDirectPosition(id, poolID, owner string, token0, token1 TokenLeg, details DirectDetails) Position {
	return Position{
		Kind:   KindDirect,
		ID:     id,
		PoolID: CanonicalPoolID(poolID),
		Owner:  owner,
		Token0: token0,
		Token1: token1,
		Direct: &details,
	}
}

// NewVaultPosition builds a vault-derived position with a canonical pool id.
func NewVaultPosition(id, poolID, owner string, token0, token1 TokenLeg, details VaultDetails) Position {
	return Position{
		Kind:   KindVaultDerived,
		ID:     id,
		PoolID: CanonicalPoolID(poolID),
		Owner:  owner,
		Token0: token0,
		Token1: token1,
		Vault:  &details,
	}
}

// CanonicalPoolID lower-cases a pool id for identity comparison.
func CanonicalPoolID(poolID string) string {
	return strings.ToLower(poolID)
}

// IsDirect reports whether the position is the direct variant.
func (p Position) IsDirect() bool {
	return p.Kind == KindDirect
}

// Amounts returns the token amounts regardless of variant.
func (p Position) Amounts() (amount0, amount1 float64) {
	if p.Kind == KindVaultDerived && p.Vault != nil {
		return p.Vault.Token0Amount, p.Vault.Token1Amount
	}
	return p.Token0.Amount, p.Token1.Amount
}

// Clone returns a deep copy so overlay application never mutates the
// authoritative record.
func (p Position) Clone() Position {
	out := p
	if p.Direct != nil {
		details := *p.Direct
		if p.Direct.OptimisticUpdating != nil {
			flag := *p.Direct.OptimisticUpdating
			details.OptimisticUpdating = &flag
		}
		out.Direct = &details
	}
	if p.Vault != nil {
		details := *p.Vault
		out.Vault = &details
	}
	return out
}
