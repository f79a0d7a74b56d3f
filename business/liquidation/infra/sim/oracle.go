package sim

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// Oracle serves fixed reference-unit prices seeded from the chain oracle.
type Oracle struct {
	mu     sync.Mutex
	prices map[common.Address]*uint256.Int
}

// NewOracle returns an empty oracle.
func NewOracle() *Oracle {
	return &Oracle{prices: make(map[common.Address]*uint256.Int)}
}

// SetPrice records the asset's price in the 18-decimal reference unit.
func (o *Oracle) SetPrice(asset common.Address, price *uint256.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[asset] = new(uint256.Int).Set(price)
}

// GetAssetPrice implements the protocol context's price oracle port.
func (o *Oracle) GetAssetPrice(_ context.Context, asset common.Address) (*uint256.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	price, ok := o.prices[asset]
	if !ok || price.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidPrice, "no price for "+asset.Hex())
	}
	return new(uint256.Int).Set(price), nil
}
