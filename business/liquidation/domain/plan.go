// Package domain contains the core domain types for the liquidation context.
package domain

import "github.com/holiman/uint256"

// LiquidationPlan is the sizer's output: the largest repay/seize pair the
// protocol permits for one call. Both amounts are in native asset decimal
// scale. MaxRepayAmount never exceeds outstanding debt and
// MaxCollateralAmount never exceeds available collateral.
type LiquidationPlan struct {
	MaxCollateralAmount *uint256.Int
	MaxRepayAmount      *uint256.Int
}

// SeizesAllCollateral reports whether the plan takes the entire available
// collateral, i.e. the collateral ceiling was the binding constraint.
func (p LiquidationPlan) SeizesAllCollateral(available *uint256.Int) bool {
	return p.MaxCollateralAmount != nil && p.MaxCollateralAmount.Eq(available)
}
