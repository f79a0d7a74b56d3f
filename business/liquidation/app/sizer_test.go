package app

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

func u(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

func TestSize_CloseFactorBinds(t *testing.T) {
	tests := []struct {
		name               string
		debtAmount         string
		collateralAmount   string
		debtDecimals       uint8
		collateralDecimals uint8
		debtPrice          string
		collateralPrice    string
		closeFactorBps     uint64
		bonusBps           uint64
		wantRepay          string
		wantCollateral     string
	}{
		{
			name:               "same_decimals_same_price",
			debtAmount:         "90000000000000000000000",  // 90000 tokens
			collateralAmount:   "100000000000000000000000", // 100000 tokens
			debtDecimals:       18,
			collateralDecimals: 18,
			debtPrice:          "1000000000000000000",
			collateralPrice:    "1000000000000000000",
			closeFactorBps:     5000,
			bonusBps:           10500,
			wantRepay:          "45000000000000000000000", // 90000 * 0.5
			wantCollateral:     "47250000000000000000000", // 45000 * 1.05
		},
		{
			// 8-decimal collateral at 20 units of reference, 6-decimal debt
			// at 0.0005. Debt value 45, collateral value 100; the close
			// factor ceiling of 22.5 binds.
			name:               "mixed_decimals",
			debtAmount:         "90000000000", // 90000 USDC
			collateralAmount:   "500000000",   // 5 WBTC
			debtDecimals:       6,
			collateralDecimals: 8,
			debtPrice:          "500000000000000",
			collateralPrice:    "20000000000000000000",
			closeFactorBps:     5000,
			bonusBps:           10500,
			wantRepay:          "45000000000", // 90000 * 0.5
			wantCollateral:     "118125000",   // 22.5 * 1.05 / 20, in 8-dec scale
		},
		{
			// One 8-decimal collateral unit at 30000 of reference against
			// 30000 units of 6-decimal debt at 1. Both sides are worth 30000
			// but the bonus-discounted collateral covers ~28571, so the close
			// factor ceiling of 15000 binds.
			name:               "one_collateral_unit",
			debtAmount:         "30000000000", // 30000 USDC
			collateralAmount:   "100000000",   // 1 WBTC
			debtDecimals:       6,
			collateralDecimals: 8,
			debtPrice:          "1000000000000000000",
			collateralPrice:    "30000000000000000000000",
			closeFactorBps:     5000,
			bonusBps:           10500,
			wantRepay:          "15000000000", // 30000 * 0.5
			wantCollateral:     "52500000",    // 15000 * 1.05 / 30000, in 8-dec scale
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Size(SizerInput{
				DebtAmount:          u(tt.debtAmount),
				CollateralAmount:    u(tt.collateralAmount),
				DebtDecimals:        tt.debtDecimals,
				CollateralDecimals:  tt.collateralDecimals,
				DebtPrice:           u(tt.debtPrice),
				CollateralPrice:     u(tt.collateralPrice),
				CloseFactorBps:      tt.closeFactorBps,
				LiquidationBonusBps: tt.bonusBps,
			})
			if err != nil {
				t.Fatalf("Size error: %v", err)
			}
			if !plan.MaxRepayAmount.Eq(u(tt.wantRepay)) {
				t.Errorf("MaxRepayAmount = %s, want %s", plan.MaxRepayAmount, tt.wantRepay)
			}
			if !plan.MaxCollateralAmount.Eq(u(tt.wantCollateral)) {
				t.Errorf("MaxCollateralAmount = %s, want %s", plan.MaxCollateralAmount, tt.wantCollateral)
			}
			if plan.MaxCollateralAmount.Gt(u(tt.collateralAmount)) {
				t.Errorf("MaxCollateralAmount %s exceeds available %s", plan.MaxCollateralAmount, tt.collateralAmount)
			}
		})
	}
}

func TestSize_CollateralBinds(t *testing.T) {
	// Collateral worth 10, debt worth 90000: the bonus-discounted collateral
	// ceiling of 10/1.05 binds, the plan seizes everything.
	available := u("10000000000000000000")
	plan, err := Size(SizerInput{
		DebtAmount:          u("90000000000000000000000"),
		CollateralAmount:    available,
		DebtDecimals:        18,
		CollateralDecimals:  18,
		DebtPrice:           u("1000000000000000000"),
		CollateralPrice:     u("1000000000000000000"),
		CloseFactorBps:      5000,
		LiquidationBonusBps: 10500,
	})
	if err != nil {
		t.Fatalf("Size error: %v", err)
	}

	if !plan.SeizesAllCollateral(available) {
		t.Errorf("MaxCollateralAmount = %s, want all of %s", plan.MaxCollateralAmount, available)
	}
	// floor(10e18 / 1.05)
	if !plan.MaxRepayAmount.Eq(u("9523809523809523809")) {
		t.Errorf("MaxRepayAmount = %s, want 9523809523809523809", plan.MaxRepayAmount)
	}

	// The repay value marked up by the bonus never exceeds the collateral
	// value; truncation keeps the gap under one native unit.
	markedUp := new(uint256.Int).Mul(plan.MaxRepayAmount, uint256.NewInt(10500))
	markedUp.Div(markedUp, uint256.NewInt(10000))
	if markedUp.Gt(available) {
		t.Errorf("repay*bonus = %s exceeds collateral %s", markedUp, available)
	}
	slack := new(uint256.Int).Sub(available, markedUp)
	if slack.Gt(uint256.NewInt(10500)) {
		t.Errorf("truncation slack = %s, want under one rounding step", slack)
	}
}

func TestSize_ZeroDebtYieldsEmptyPlan(t *testing.T) {
	plan, err := Size(SizerInput{
		DebtAmount:          uint256.NewInt(0),
		CollateralAmount:    u("10000000000000000000"),
		DebtDecimals:        18,
		CollateralDecimals:  18,
		DebtPrice:           u("1000000000000000000"),
		CollateralPrice:     u("1000000000000000000"),
		CloseFactorBps:      5000,
		LiquidationBonusBps: 10500,
	})
	if err != nil {
		t.Fatalf("Size error: %v", err)
	}
	if !plan.MaxRepayAmount.IsZero() {
		t.Errorf("MaxRepayAmount = %s, want 0", plan.MaxRepayAmount)
	}
	if !plan.MaxCollateralAmount.IsZero() {
		t.Errorf("MaxCollateralAmount = %s, want 0", plan.MaxCollateralAmount)
	}
}

func TestSize_InputValidation(t *testing.T) {
	base := SizerInput{
		DebtAmount:          u("1000000"),
		CollateralAmount:    u("1000000"),
		DebtDecimals:        6,
		CollateralDecimals:  6,
		DebtPrice:           u("1000000000000000000"),
		CollateralPrice:     u("1000000000000000000"),
		CloseFactorBps:      5000,
		LiquidationBonusBps: 10500,
	}

	zeroBonus := base
	zeroBonus.LiquidationBonusBps = 0
	if _, err := Size(zeroBonus); apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("zero bonus code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidInput)
	}

	zeroDebtPrice := base
	zeroDebtPrice.DebtPrice = uint256.NewInt(0)
	if _, err := Size(zeroDebtPrice); apperror.GetCode(err) != apperror.CodeInvalidPrice {
		t.Errorf("zero debt price code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidPrice)
	}

	nilCollateralPrice := base
	nilCollateralPrice.CollateralPrice = nil
	if _, err := Size(nilCollateralPrice); apperror.GetCode(err) != apperror.CodeInvalidPrice {
		t.Errorf("nil collateral price code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidPrice)
	}
}
