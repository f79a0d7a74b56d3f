package sim

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// PairFactory holds the sim's pairs, keyed by the canonical token order.
type PairFactory struct {
	ledger *Ledger

	mu    sync.Mutex
	pairs map[[2]common.Address]*Pair
}

// NewPairFactory returns an empty factory over the ledger.
func NewPairFactory(ledger *Ledger) *PairFactory {
	return &PairFactory{
		ledger: ledger,
		pairs:  make(map[[2]common.Address]*Pair),
	}
}

// CreatePair registers a pair at a derived address. Re-creating an existing
// pair returns it unchanged.
func (f *PairFactory) CreatePair(tokenA, tokenB common.Address) *Pair {
	token0, token1 := marketApp.SortTokens(tokenA, tokenB)
	key := [2]common.Address{token0, token1}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pair, ok := f.pairs[key]; ok {
		return pair
	}
	pair := NewPair(f.ledger, pairAddress(token0, token1), token0, token1)
	f.pairs[key] = pair
	return pair
}

// GetPair implements marketApp.PairFactory.
func (f *PairFactory) GetPair(_ context.Context, assetA, assetB common.Address) (marketApp.Pair, error) {
	token0, token1 := marketApp.SortTokens(assetA, assetB)

	f.mu.Lock()
	defer f.mu.Unlock()
	pair, ok := f.pairs[[2]common.Address{token0, token1}]
	if !ok {
		return nil, apperror.Validation(apperror.CodePairNotFound, "no pair for "+token0.Hex()+"/"+token1.Hex())
	}
	return pair, nil
}

// snapshotReserves captures every pair's cached reserves.
func (f *PairFactory) snapshotReserves() map[[2]common.Address][2]*uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[[2]common.Address][2]*uint256.Int, len(f.pairs))
	for key, pair := range f.pairs {
		snap[key] = pair.snapshotReserves()
	}
	return snap
}

// restoreReserves reverts every pair present in the snapshot. Pairs created
// after the snapshot keep their reserves; their ledger balances are reverted
// separately.
func (f *PairFactory) restoreReserves(snap map[[2]common.Address][2]*uint256.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, reserves := range snap {
		if pair, ok := f.pairs[key]; ok {
			pair.restoreReserves(reserves)
		}
	}
}

// pairAddress derives a stable unique address from the token pair.
func pairAddress(token0, token1 common.Address) common.Address {
	hash := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	return common.BytesToAddress(hash[12:])
}
