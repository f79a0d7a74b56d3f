package domain

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/internal/apperror"
)

func TestUserConfig_BitLayout(t *testing.T) {
	// Bitmap 0b0110: reserve 0 is collateral-only, reserve 1 is borrow-only.
	cfg := NewUserConfig(uint256.NewInt(0b0110))

	tests := []struct {
		name           string
		index          uint64
		wantBorrowing  bool
		wantCollateral bool
	}{
		{name: "reserve_0_collateral_only", index: 0, wantBorrowing: false, wantCollateral: true},
		{name: "reserve_1_borrow_only", index: 1, wantBorrowing: true, wantCollateral: false},
		{name: "reserve_2_untouched", index: 2, wantBorrowing: false, wantCollateral: false},
		{name: "last_reserve_untouched", index: 127, wantBorrowing: false, wantCollateral: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			borrowing, err := cfg.IsBorrowing(tt.index)
			if err != nil {
				t.Fatalf("IsBorrowing(%d) error: %v", tt.index, err)
			}
			if borrowing != tt.wantBorrowing {
				t.Errorf("IsBorrowing(%d) = %v, want %v", tt.index, borrowing, tt.wantBorrowing)
			}

			collateral, err := cfg.IsUsingAsCollateral(tt.index)
			if err != nil {
				t.Fatalf("IsUsingAsCollateral(%d) error: %v", tt.index, err)
			}
			if collateral != tt.wantCollateral {
				t.Errorf("IsUsingAsCollateral(%d) = %v, want %v", tt.index, collateral, tt.wantCollateral)
			}
		})
	}
}

func TestUserConfig_IndexOutOfRange(t *testing.T) {
	cfg := NewUserConfig(nil)

	if _, err := cfg.IsBorrowing(MaxReserves); apperror.GetCode(err) != apperror.CodeInvalidIndex {
		t.Errorf("IsBorrowing(%d) code = %v, want %v", MaxReserves, apperror.GetCode(err), apperror.CodeInvalidIndex)
	}
	if _, err := cfg.IsUsingAsCollateral(200); apperror.GetCode(err) != apperror.CodeInvalidIndex {
		t.Errorf("IsUsingAsCollateral(200) code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidIndex)
	}
	if err := cfg.SetBorrowing(MaxReserves, true); apperror.GetCode(err) != apperror.CodeInvalidIndex {
		t.Errorf("SetBorrowing(%d) code = %v, want %v", MaxReserves, apperror.GetCode(err), apperror.CodeInvalidIndex)
	}
	if err := cfg.SetUsingAsCollateral(MaxReserves, true); apperror.GetCode(err) != apperror.CodeInvalidIndex {
		t.Errorf("SetUsingAsCollateral(%d) code = %v, want %v", MaxReserves, apperror.GetCode(err), apperror.CodeInvalidIndex)
	}
}

func TestUserConfig_SetAndClear(t *testing.T) {
	cfg := NewUserConfig(nil)

	if err := cfg.SetBorrowing(5, true); err != nil {
		t.Fatalf("SetBorrowing error: %v", err)
	}
	if err := cfg.SetUsingAsCollateral(127, true); err != nil {
		t.Fatalf("SetUsingAsCollateral error: %v", err)
	}

	borrowing, _ := cfg.IsBorrowing(5)
	if !borrowing {
		t.Error("IsBorrowing(5) = false after set")
	}
	collateral, _ := cfg.IsUsingAsCollateral(127)
	if !collateral {
		t.Error("IsUsingAsCollateral(127) = false after set")
	}

	if err := cfg.SetBorrowing(5, false); err != nil {
		t.Fatalf("SetBorrowing(clear) error: %v", err)
	}
	borrowing, _ = cfg.IsBorrowing(5)
	if borrowing {
		t.Error("IsBorrowing(5) = true after clear")
	}
	// The collateral flag at the top index must survive the clear.
	collateral, _ = cfg.IsUsingAsCollateral(127)
	if !collateral {
		t.Error("IsUsingAsCollateral(127) = false after unrelated clear")
	}
}

func TestUserConfig_Aggregates(t *testing.T) {
	empty := NewUserConfig(nil)
	if !empty.IsEmpty() {
		t.Error("IsEmpty = false for zero bitmap")
	}
	if empty.IsBorrowingAny() {
		t.Error("IsBorrowingAny = true for zero bitmap")
	}

	collateralOnly := NewUserConfig(nil)
	_ = collateralOnly.SetUsingAsCollateral(3, true)
	if collateralOnly.IsEmpty() {
		t.Error("IsEmpty = true with a collateral flag set")
	}
	if collateralOnly.IsBorrowingAny() {
		t.Error("IsBorrowingAny = true with only collateral flags set")
	}

	borrower := NewUserConfig(nil)
	_ = borrower.SetBorrowing(127, true)
	if !borrower.IsBorrowingAny() {
		t.Error("IsBorrowingAny = false with the top borrow flag set")
	}
}
