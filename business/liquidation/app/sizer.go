package app

import (
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

// percentScale is the 4-decimal fixed-point scale for close factor and
// liquidation bonus: 10000 = 100%.
var percentScale = uint256.NewInt(10000)

// SizerInput carries everything the sizer needs, with explicit scales:
// amounts in native asset decimals, prices in the 18-decimal reference unit,
// close factor and bonus in 4-decimal fixed point.
type SizerInput struct {
	DebtAmount          *uint256.Int
	CollateralAmount    *uint256.Int
	DebtDecimals        uint8
	CollateralDecimals  uint8
	DebtPrice           *uint256.Int
	CollateralPrice     *uint256.Int
	CloseFactorBps      uint64
	LiquidationBonusBps uint64
}

// Size computes the maximum allowed repay/seize pair for one liquidation
// call. Two ceilings apply, both expressed in the reference unit: the
// close-factor cap on repayment and the bonus-discounted value of available
// collateral. The smaller ceiling binds. When collateral binds the plan
// seizes all of it; otherwise it repays exactly the close-factor bound and
// seizes a proportional, bonus-adjusted fraction. Every conversion between
// native scale and the reference unit truncates, never rounds up.
func Size(in SizerInput) (domain.LiquidationPlan, error) {
	if in.LiquidationBonusBps == 0 {
		return domain.LiquidationPlan{}, apperror.Validation(apperror.CodeInvalidInput, "zero liquidation bonus")
	}
	if in.DebtPrice == nil || in.DebtPrice.IsZero() || in.CollateralPrice == nil || in.CollateralPrice.IsZero() {
		return domain.LiquidationPlan{}, apperror.Validation(apperror.CodeInvalidPrice, "sizer input")
	}

	debtUnit := pow10(in.DebtDecimals)
	collUnit := pow10(in.CollateralDecimals)
	closeFactor := uint256.NewInt(in.CloseFactorBps)
	bonus := uint256.NewInt(in.LiquidationBonusBps)

	// Close-factor ceiling: value of debt*closeFactor in the reference unit.
	repayCeilByCloseFactor, err := mulDiv(in.DebtAmount, closeFactor, in.DebtPrice, debtUnit, percentScale)
	if err != nil {
		return domain.LiquidationPlan{}, err
	}

	// Collateral ceiling: collateral value discounted by the bonus markup.
	repayCeilByCollateral, err := mulDiv(in.CollateralAmount, percentScale, in.CollateralPrice, collUnit, bonus)
	if err != nil {
		return domain.LiquidationPlan{}, err
	}

	if repayCeilByCollateral.Lt(repayCeilByCloseFactor) {
		// Collateral binds: seize everything, repay what it covers.
		maxRepay, err := mulDiv(repayCeilByCollateral, debtUnit, uint256.NewInt(1), in.DebtPrice, uint256.NewInt(1))
		if err != nil {
			return domain.LiquidationPlan{}, err
		}
		return domain.LiquidationPlan{
			MaxCollateralAmount: in.CollateralAmount.Clone(),
			MaxRepayAmount:      maxRepay,
		}, nil
	}

	// Close factor binds: repay exactly the bound, seize proportionally.
	maxRepay, err := mulDiv(in.DebtAmount, closeFactor, uint256.NewInt(1), percentScale, uint256.NewInt(1))
	if err != nil {
		return domain.LiquidationPlan{}, err
	}
	maxCollateral, err := mulDiv(repayCeilByCloseFactor, bonus, collUnit, in.CollateralPrice, percentScale)
	if err != nil {
		return domain.LiquidationPlan{}, err
	}

	return domain.LiquidationPlan{
		MaxCollateralAmount: maxCollateral,
		MaxRepayAmount:      maxRepay,
	}, nil
}

// mulDiv computes floor(a*b*c / (d*e)) with 256-bit overflow rejection.
func mulDiv(a, b, c, d, e *uint256.Int) (*uint256.Int, error) {
	num, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "sizer")
	}
	num, overflow = new(uint256.Int).MulOverflow(num, c)
	if overflow {
		return nil, apperror.Validation(apperror.CodeOverflow, "sizer")
	}
	den, overflow := new(uint256.Int).MulOverflow(d, e)
	if overflow || den.IsZero() {
		return nil, apperror.Validation(apperror.CodeOverflow, "sizer")
	}
	return new(uint256.Int).Div(num, den), nil
}

func pow10(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}
