package chainread

import (
	"github.com/ethereum/go-ethereum/common"

	"alphixcore/internal/model"
)

// TokenInfo describes one leg of a pool.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// PoolInfo is the static metadata the readers need for one pool:
// contract address, token pair, fee tier, and the optional vault hook
// that holds rerouted liquidity.
type PoolInfo struct {
	ID      string
	Address common.Address
	Token0  TokenInfo
	Token1  TokenInfo
	Fee     uint32
	Vault   common.Address
}

// Registry resolves pools by id or token pair. Pool ids are
// canonicalized on construction.
type Registry struct {
	pools []PoolInfo
	byID  map[string]int
}

func NewRegistry(pools []PoolInfo) *Registry {
	r := &Registry{
		pools: make([]PoolInfo, len(pools)),
		byID:  make(map[string]int, len(pools)),
	}
	for i, pool := range pools {
		pool.ID = model.CanonicalPoolID(pool.ID)
		r.pools[i] = pool
		r.byID[pool.ID] = i
	}
	return r
}

// ByID returns the pool with the given id.
func (r *Registry) ByID(id string) (PoolInfo, bool) {
	i, ok := r.byID[model.CanonicalPoolID(id)]
	if !ok {
		return PoolInfo{}, false
	}
	return r.pools[i], true
}

// ByTokens returns the pool whose token pair matches, in either order.
func (r *Registry) ByTokens(a, b common.Address) (PoolInfo, bool) {
	for _, pool := range r.pools {
		if (pool.Token0.Address == a && pool.Token1.Address == b) ||
			(pool.Token0.Address == b && pool.Token1.Address == a) {
			return pool, true
		}
	}
	return PoolInfo{}, false
}

// Pools returns all registered pools.
func (r *Registry) Pools() []PoolInfo {
	out := make([]PoolInfo, len(r.pools))
	copy(out, r.pools)
	return out
}
