package chainread

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alphixcore/internal/chain"
	"alphixcore/internal/position"
)

// IDSourceClient enumerates position ids owned by an address from the
// position manager contract. The first answer may come from the id
// cache; a background re-read then delivers a corrected list through
// the caller's callback when it differs.
type IDSourceClient struct {
	client  *chain.Client
	manager common.Address
	cache   *position.IDCache
	logger  *zap.Logger
}

func NewIDSourceClient(client *chain.Client, manager common.Address, cache *position.IDCache, logger *zap.Logger) *IDSourceClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = position.NewIDCache()
	}
	return &IDSourceClient{
		client:  client,
		manager: manager,
		cache:   cache,
		logger:  logger,
	}
}

// LoadOwnedIDs returns the owned id list, cached-first. When a cached
// answer is returned, a background re-read verifies it and invokes
// onRefreshed with the corrected list if the cache was stale.
func (c *IDSourceClient) LoadOwnedIDs(ctx context.Context, owner string, onRefreshed func([]string)) ([]string, error) {
	if cached, ok := c.cache.IDs(owner); ok {
		go c.verifyCached(owner, cached, onRefreshed)
		return cached, nil
	}

	fresh, err := c.readOwnedIDs(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.cache.PutIDs(owner, fresh)
	return fresh, nil
}

func (c *IDSourceClient) verifyCached(owner string, cached []string, onRefreshed func([]string)) {
	fresh, err := c.readOwnedIDs(context.Background(), owner)
	if err != nil {
		c.logger.Warn("background id re-read failed", zap.String("owner", owner), zap.Error(err))
		return
	}
	if equalIDSets(cached, fresh) {
		return
	}
	c.cache.PutIDs(owner, fresh)
	if onRefreshed != nil {
		onRefreshed(fresh)
	}
}

func (c *IDSourceClient) readOwnedIDs(ctx context.Context, owner string) ([]string, error) {
	managerABI, err := getManagerABI()
	if err != nil {
		return nil, err
	}

	ownerAddr := common.HexToAddress(owner)
	values, err := callView(ctx, c.client, managerABI, c.manager, "balanceOf", ownerAddr)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf return size %d", len(values))
	}
	count, err := asBigInt(values[0], "balanceOf")
	if err != nil {
		return nil, err
	}
	if !count.IsUint64() {
		return nil, fmt.Errorf("balanceOf out of range: %s", count)
	}

	total := count.Uint64()
	ids := make([]string, 0, total)
	for i := uint64(0); i < total; i++ {
		values, err := callView(ctx, c.client, managerABI, c.manager, "tokenOfOwnerByIndex", ownerAddr, new(big.Int).SetUint64(i))
		if err != nil {
			return nil, err
		}
		if len(values) != 1 {
			return nil, fmt.Errorf("tokenOfOwnerByIndex return size %d", len(values))
		}
		id, err := asBigInt(values[0], "tokenOfOwnerByIndex")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}

	return ids, nil
}

func equalIDSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
