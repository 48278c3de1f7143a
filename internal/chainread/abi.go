package chainread

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"alphixcore/internal/chain"
)

const positionManagerABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}, {"internalType": "uint256", "name": "index", "type": "uint256"}], "name": "tokenOfOwnerByIndex", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}], "name": "positions", "outputs": [
    {"internalType": "uint96", "name": "nonce", "type": "uint96"},
    {"internalType": "address", "name": "operator", "type": "address"},
    {"internalType": "address", "name": "token0", "type": "address"},
    {"internalType": "address", "name": "token1", "type": "address"},
    {"internalType": "uint24", "name": "fee", "type": "uint24"},
    {"internalType": "int24", "name": "tickLower", "type": "int24"},
    {"internalType": "int24", "name": "tickUpper", "type": "int24"},
    {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
    {"internalType": "uint256", "name": "feeGrowthInside0LastX128", "type": "uint256"},
    {"internalType": "uint256", "name": "feeGrowthInside1LastX128", "type": "uint256"},
    {"internalType": "uint128", "name": "tokensOwed0", "type": "uint128"},
    {"internalType": "uint128", "name": "tokensOwed1", "type": "uint128"}
  ], "stateMutability": "view", "type": "function"}
]`

const vaultABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}], "name": "previewRedeem", "outputs": [
    {"internalType": "uint256", "name": "amount0", "type": "uint256"},
    {"internalType": "uint256", "name": "amount1", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "slot0", "outputs": [
    {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
    {"internalType": "int24", "name": "tick", "type": "int24"},
    {"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
    {"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
    {"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
    {"internalType": "bool", "name": "unlocked", "type": "bool"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "liquidity", "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}], "stateMutability": "view", "type": "function"}
]`

var (
	managerABI    abi.ABI
	managerOnce   sync.Once
	managerABIErr error

	vaultABI    abi.ABI
	vaultOnce   sync.Once
	vaultABIErr error

	poolABI    abi.ABI
	poolOnce   sync.Once
	poolABIErr error
)

func getManagerABI() (abi.ABI, error) {
	managerOnce.Do(func() {
		managerABI, managerABIErr = abi.JSON(strings.NewReader(positionManagerABIJSON))
	})
	return managerABI, managerABIErr
}

func getVaultABI() (abi.ABI, error) {
	vaultOnce.Do(func() {
		vaultABI, vaultABIErr = abi.JSON(strings.NewReader(vaultABIJSON))
	})
	return vaultABI, vaultABIErr
}

func getPoolABI() (abi.ABI, error) {
	poolOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}

// callView packs, eth_calls and unpacks a view method against the
// latest block.
func callView(ctx context.Context, client *chain.Client, contractABI abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asBigInt(value interface{}, method string) (*big.Int, error) {
	out, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s unexpected type %T", method, value)
	}
	return out, nil
}
