// Package app contains application services and port definitions for the protocol context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/domain"
)

// PoolReader is the read-only boundary to the lending protocol's accounting
// and solvency engine. All reads reflect state at call time; nothing is
// cached between calls.
type PoolReader interface {
	// GetUserAccountData returns the aggregate account view, including the
	// 1e18-scaled health factor.
	GetUserAccountData(ctx context.Context, user common.Address) (domain.AccountData, error)

	// GetReserveData returns the receipt-token addresses and packed
	// configuration for an asset's reserve.
	GetReserveData(ctx context.Context, asset common.Address) (domain.ReserveData, error)

	// GetReservesList returns the protocol's reserves in index order.
	GetReservesList(ctx context.Context) ([]common.Address, error)

	// GetUserConfiguration returns the packed borrow/collateral bitmap.
	GetUserConfiguration(ctx context.Context, user common.Address) (domain.UserConfig, error)

	// GetConfiguration returns the packed reserve configuration word.
	GetConfiguration(ctx context.Context, asset common.Address) (domain.ReserveConfig, error)
}

// LendingPool extends PoolReader with the liquidation operation.
type LendingPool interface {
	PoolReader

	// LiquidationCall repays up to debtToCover of the user's debt and seizes
	// a bonus-adjusted amount of collateral. The pool clamps debtToCover to
	// the outstanding debt and the close-factor bound. It returns the debt
	// actually repaid and the collateral actually seized.
	LiquidationCall(ctx context.Context, collateralAsset, debtAsset, user common.Address,
		debtToCover *uint256.Int, receiveAToken bool) (repaid, seized *uint256.Int, err error)
}

// PriceOracle defines the boundary to the protocol's price source.
// Prices are expressed in the 18-decimal reference unit.
type PriceOracle interface {
	GetAssetPrice(ctx context.Context, asset common.Address) (*uint256.Int, error)
}
