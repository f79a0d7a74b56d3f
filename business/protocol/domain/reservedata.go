package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// HealthFactorScale is the fixed-point scale of the health factor: 1e18 = 1.0.
// Below 1.0 the position is liquidatable.
var HealthFactorScale = uint256.NewInt(1e18)

// PriceScale is the oracle's reference-unit scale (18 decimals).
var PriceScale = uint256.NewInt(1e18)

// ReserveData holds the per-reserve token addresses and configuration.
type ReserveData struct {
	Asset               common.Address
	ATokenAddress       common.Address // interest-bearing receipt token
	StableDebtAddress   common.Address
	VariableDebtAddress common.Address
	Config              ReserveConfig
}

// AccountData is the protocol's aggregate view of a user account.
// All value fields are in the oracle's reference unit.
type AccountData struct {
	TotalCollateral *uint256.Int
	TotalDebt       *uint256.Int
	AvailableBorrow *uint256.Int
	HealthFactor    *uint256.Int // 1e18 scale
}

// IsLiquidatable reports whether the health factor is below 1.0.
func (a AccountData) IsLiquidatable() bool {
	return a.HealthFactor != nil && a.HealthFactor.Lt(HealthFactorScale)
}

// Position is a user's debt and collateral for one asset pair, each in the
// asset's native decimal scale. Debt is the sum of the stable and variable
// debt receipt balances; collateral is the interest-bearing receipt balance.
type Position struct {
	User               common.Address
	DebtAsset          common.Address
	CollateralAsset    common.Address
	Debt               *uint256.Int
	Collateral         *uint256.Int
	DebtDecimals       uint8
	CollateralDecimals uint8
}

// HasDebt reports whether the position carries outstanding debt.
func (p Position) HasDebt() bool {
	return p.Debt != nil && !p.Debt.IsZero()
}

// HasCollateral reports whether any collateral is available to seize.
func (p Position) HasCollateral() bool {
	return p.Collateral != nil && !p.Collateral.IsZero()
}
