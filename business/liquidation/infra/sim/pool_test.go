package sim

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

var (
	poolAddr   = common.HexToAddress("0x0000000000000000000000000000000000000b00")
	liquidator = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	borrower   = common.HexToAddress("0x0000000000000000000000000000000000000b02")

	dai   = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	usdc  = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	aDAI  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	sUSDC = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	vUSDC = common.HexToAddress("0x00000000000000000000000000000000000000e3")
	sDAI  = common.HexToAddress("0x00000000000000000000000000000000000000e4")
	vDAI  = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	aUSDC = common.HexToAddress("0x00000000000000000000000000000000000000e6")
)

func d(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

func reserveConfig(decimals uint8, ltv, threshold, bonus uint64, active bool) domain.ReserveConfig {
	cfg := domain.NewReserveConfig(nil)
	cfg.SetDecimals(decimals)
	cfg.SetLTV(ltv)
	cfg.SetLiquidationThreshold(threshold)
	cfg.SetLiquidationBonus(bonus)
	cfg.SetActive(active)
	return cfg
}

// newLendingFixture builds a pool with a DAI collateral reserve and a USDC
// debt reserve, both priced at 0.0005 reference units, close factor 50%.
// The borrower holds 100000 DAI of collateral against 90000 USDC of debt,
// for a health factor of 40/45.
func newLendingFixture(t *testing.T) (*Ledger, *LendingPool) {
	t.Helper()
	ledger := NewLedger()
	oracle := NewOracle()
	pool := NewLendingPool(ledger, oracle, poolAddr, liquidator, 5000)

	pool.AddReserve(domain.ReserveData{
		Asset:               dai,
		ATokenAddress:       aDAI,
		StableDebtAddress:   sDAI,
		VariableDebtAddress: vDAI,
		Config:              reserveConfig(18, 7500, 8000, 10500, true),
	})
	pool.AddReserve(domain.ReserveData{
		Asset:               usdc,
		ATokenAddress:       aUSDC,
		StableDebtAddress:   sUSDC,
		VariableDebtAddress: vUSDC,
		Config:              reserveConfig(6, 8000, 8500, 10450, true),
	})
	oracle.SetPrice(dai, d("500000000000000"))
	oracle.SetPrice(usdc, d("500000000000000"))

	ledger.SetBalance(aDAI, borrower, d("100000000000000000000000")) // 100000 DAI
	ledger.SetBalance(vUSDC, borrower, d("90000000000"))             // 90000 USDC
	ledger.SetBalance(dai, poolAddr, d("200000000000000000000000"))
	ledger.SetBalance(usdc, liquidator, d("100000000000"))
	return ledger, pool
}

func TestLendingPool_GetUserAccountData(t *testing.T) {
	_, pool := newLendingFixture(t)

	account, err := pool.GetUserAccountData(context.Background(), borrower)
	if err != nil {
		t.Fatalf("GetUserAccountData error: %v", err)
	}

	// Collateral 50, debt 45, threshold 80%: HF = 40/45.
	if !account.TotalCollateral.Eq(d("50000000000000000000")) {
		t.Errorf("TotalCollateral = %s, want 50e18", account.TotalCollateral)
	}
	if !account.TotalDebt.Eq(d("45000000000000000000")) {
		t.Errorf("TotalDebt = %s, want 45e18", account.TotalDebt)
	}
	if !account.HealthFactor.Eq(d("888888888888888888")) {
		t.Errorf("HealthFactor = %s, want 888888888888888888", account.HealthFactor)
	}
	if !account.IsLiquidatable() {
		t.Error("IsLiquidatable = false, want true")
	}
}

func TestLendingPool_UserWithNoDebtIsHealthy(t *testing.T) {
	ledger, pool := newLendingFixture(t)
	ledger.SetBalance(vUSDC, borrower, uint256.NewInt(0))

	account, err := pool.GetUserAccountData(context.Background(), borrower)
	if err != nil {
		t.Fatalf("GetUserAccountData error: %v", err)
	}
	if account.IsLiquidatable() {
		t.Error("IsLiquidatable = true with zero debt")
	}
}

func TestLendingPool_LiquidationCallClampsToCloseFactor(t *testing.T) {
	ledger, pool := newLendingFixture(t)

	repaid, seized, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
		new(uint256.Int).SetAllOne(), false)
	if err != nil {
		t.Fatalf("LiquidationCall error: %v", err)
	}

	// Close factor 50% of 90000 USDC; collateral at a 5% bonus.
	if !repaid.Eq(d("45000000000")) {
		t.Errorf("repaid = %s, want 45000e6", repaid)
	}
	if !seized.Eq(d("47250000000000000000000")) {
		t.Errorf("seized = %s, want 47250e18", seized)
	}

	if got := ledger.Balance(vUSDC, borrower); !got.Eq(d("45000000000")) {
		t.Errorf("remaining debt receipt = %s, want 45000e6", got)
	}
	if got := ledger.Balance(aDAI, borrower); !got.Eq(d("52750000000000000000000")) {
		t.Errorf("remaining collateral receipt = %s, want 52750e18", got)
	}
	if got := ledger.Balance(dai, liquidator); !got.Eq(d("47250000000000000000000")) {
		t.Errorf("liquidator collateral = %s, want 47250e18", got)
	}
	if got := ledger.Balance(usdc, liquidator); !got.Eq(d("55000000000")) {
		t.Errorf("liquidator debt asset = %s, want 55000e6", got)
	}
	if got := ledger.Balance(usdc, poolAddr); !got.Eq(d("45000000000")) {
		t.Errorf("pool debt asset = %s, want 45000e6", got)
	}
}

func TestLendingPool_LiquidationCallRespectsRequestedAmount(t *testing.T) {
	ledger, pool := newLendingFixture(t)

	repaid, seized, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
		d("10000000000"), false) // 10000 USDC, under the close-factor cap
	if err != nil {
		t.Fatalf("LiquidationCall error: %v", err)
	}
	if !repaid.Eq(d("10000000000")) {
		t.Errorf("repaid = %s, want 10000e6", repaid)
	}
	if !seized.Eq(d("10500000000000000000000")) {
		t.Errorf("seized = %s, want 10500e18", seized)
	}
	if got := ledger.Balance(vUSDC, borrower); !got.Eq(d("80000000000")) {
		t.Errorf("remaining debt receipt = %s, want 80000e6", got)
	}
}

func TestLendingPool_LiquidationCallCappedByCollateral(t *testing.T) {
	ledger, pool := newLendingFixture(t)
	ledger.SetBalance(aDAI, borrower, d("10000000000000000000")) // 10 DAI only

	repaid, seized, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
		new(uint256.Int).SetAllOne(), false)
	if err != nil {
		t.Fatalf("LiquidationCall error: %v", err)
	}

	if !seized.Eq(d("10000000000000000000")) {
		t.Errorf("seized = %s, want all 10e18", seized)
	}
	// floor(10 DAI worth of debt discounted by the 5% bonus) = 9.523809 USDC.
	if !repaid.Eq(d("9523809")) {
		t.Errorf("repaid = %s, want 9523809", repaid)
	}
	if got := ledger.Balance(aDAI, borrower); !got.IsZero() {
		t.Errorf("remaining collateral receipt = %s, want 0", got)
	}
}

func TestLendingPool_LiquidationCallRejections(t *testing.T) {
	t.Run("healthy_user", func(t *testing.T) {
		ledger, pool := newLendingFixture(t)
		ledger.SetBalance(vUSDC, borrower, d("10000000000")) // debt value 5 vs weighted 40

		_, _, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
			new(uint256.Int).SetAllOne(), false)
		if apperror.GetCode(err) != apperror.CodeNotLiquidatable {
			t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeNotLiquidatable)
		}
	})

	t.Run("inactive_reserve", func(t *testing.T) {
		_, pool := newLendingFixture(t)
		pool.AddReserve(domain.ReserveData{
			Asset:               dai,
			ATokenAddress:       aDAI,
			StableDebtAddress:   sDAI,
			VariableDebtAddress: vDAI,
			Config:              reserveConfig(18, 7500, 8000, 10500, false),
		})

		_, _, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
			new(uint256.Int).SetAllOne(), false)
		if apperror.GetCode(err) != apperror.CodeReserveInactive {
			t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeReserveInactive)
		}
	})

	t.Run("pool_cannot_deliver", func(t *testing.T) {
		ledger, pool := newLendingFixture(t)
		ledger.SetBalance(dai, poolAddr, d("1000000000000000000")) // 1 DAI

		_, _, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
			new(uint256.Int).SetAllOne(), false)
		if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
			t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeInsufficientLiquidity)
		}
	})
}

func TestLendingPool_BurnsVariableDebtFirst(t *testing.T) {
	ledger, pool := newLendingFixture(t)
	ledger.SetBalance(vUSDC, borrower, d("30000000000")) // 30000 variable
	ledger.SetBalance(sUSDC, borrower, d("60000000000")) // 60000 stable

	repaid, _, err := pool.LiquidationCall(context.Background(), dai, usdc, borrower,
		new(uint256.Int).SetAllOne(), false)
	if err != nil {
		t.Fatalf("LiquidationCall error: %v", err)
	}
	if !repaid.Eq(d("45000000000")) {
		t.Fatalf("repaid = %s, want 45000e6", repaid)
	}
	if got := ledger.Balance(vUSDC, borrower); !got.IsZero() {
		t.Errorf("variable debt = %s, want 0", got)
	}
	if got := ledger.Balance(sUSDC, borrower); !got.Eq(d("45000000000")) {
		t.Errorf("stable debt = %s, want 45000e6", got)
	}
}

func TestLendingPool_GetUserConfiguration(t *testing.T) {
	_, pool := newLendingFixture(t)

	cfg, err := pool.GetUserConfiguration(context.Background(), borrower)
	if err != nil {
		t.Fatalf("GetUserConfiguration error: %v", err)
	}

	collateral, _ := cfg.IsUsingAsCollateral(0)
	if !collateral {
		t.Error("reserve 0 collateral flag not set")
	}
	borrowing, _ := cfg.IsBorrowing(0)
	if borrowing {
		t.Error("reserve 0 borrow flag set")
	}
	borrowing, _ = cfg.IsBorrowing(1)
	if !borrowing {
		t.Error("reserve 1 borrow flag not set")
	}
	if !cfg.IsBorrowingAny() {
		t.Error("IsBorrowingAny = false")
	}
}
