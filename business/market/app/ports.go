// Package app contains port definitions for the market context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapRecipient is the continuation a pair invokes mid-swap when the swap
// carries a non-empty payload. The call happens synchronously, before the
// pair verifies its constant-product invariant, and within the same atomic
// unit of work as the outer swap.
type SwapRecipient interface {
	// Address is where the pair credits the swap output.
	Address() common.Address

	OnSwapCallback(ctx context.Context, sender common.Address, amount0, amount1 *uint256.Int, payload []byte) error
}

// Pair is one constant-product two-asset pool.
type Pair interface {
	// Address returns the pair's own address (the callback sender).
	Address() common.Address

	// Token0 and Token1 return the pair's assets in canonical order.
	Token0() common.Address
	Token1() common.Address

	// GetReserves returns the current reserves and the last update timestamp.
	// Reserves are externally mutable; read immediately before use.
	GetReserves(ctx context.Context) (reserve0, reserve1 *uint256.Int, lastUpdate uint32, err error)

	// Swap sends the requested output amounts to the recipient. A non-empty
	// payload makes the pair invoke to.OnSwapCallback before finalizing; the
	// swap fails unless the fee-adjusted constant-product invariant holds
	// once the callback returns.
	Swap(ctx context.Context, amount0Out, amount1Out *uint256.Int, to SwapRecipient, payload []byte) error
}

// PairFactory resolves pair instances for asset pairs.
type PairFactory interface {
	GetPair(ctx context.Context, assetA, assetB common.Address) (Pair, error)
}

// PairState is a point-in-time copy of one pair's identity and reserves.
type PairState struct {
	Address  common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
}

// PairStateReader captures pair state for offline replay.
type PairStateReader interface {
	PairState(ctx context.Context, assetA, assetB common.Address) (PairState, error)
}

// SortTokens returns the two assets in the pair's canonical (ascending) order.
func SortTokens(assetA, assetB common.Address) (common.Address, common.Address) {
	if assetA.Cmp(assetB) < 0 {
		return assetA, assetB
	}
	return assetB, assetA
}
