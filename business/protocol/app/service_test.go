package app

import (
	"context"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

var (
	testUser = common.HexToAddress("0x0000000000000000000000000000000000000101")
	testDAI  = common.HexToAddress("0x0000000000000000000000000000000000000201")
	testUSDC = common.HexToAddress("0x0000000000000000000000000000000000000202")
)

type stubPool struct {
	PoolReader
	reserves map[common.Address]domain.ReserveData
	userCfg  domain.UserConfig
	list     []common.Address
}

func (s *stubPool) GetReserveData(_ context.Context, asset common.Address) (domain.ReserveData, error) {
	data, ok := s.reserves[asset]
	if !ok {
		return domain.ReserveData{}, apperror.Validation(apperror.CodeNotFound, asset.Hex())
	}
	return data, nil
}

func (s *stubPool) GetUserConfiguration(context.Context, common.Address) (domain.UserConfig, error) {
	return s.userCfg, nil
}

func (s *stubPool) GetReservesList(context.Context) ([]common.Address, error) {
	return s.list, nil
}

type stubBalances map[common.Address]map[common.Address]string

func (s stubBalances) BalanceOf(_ context.Context, token, account common.Address) (*uint256.Int, error) {
	holders, ok := s[token]
	if !ok {
		return uint256.NewInt(0), nil
	}
	v, ok := holders[account]
	if !ok {
		return uint256.NewInt(0), nil
	}
	return uint256.MustFromDecimal(v), nil
}

func activeReserve(asset common.Address, decimals uint8, suffix byte) domain.ReserveData {
	cfg := domain.NewReserveConfig(nil)
	cfg.SetDecimals(decimals)
	cfg.SetActive(true)
	base := asset.Bytes()
	derived := func(tag byte) common.Address {
		out := common.BytesToAddress(base)
		out[0] = tag
		out[1] = suffix
		return out
	}
	return domain.ReserveData{
		Asset:               asset,
		ATokenAddress:       derived(0xa1),
		StableDebtAddress:   derived(0xa2),
		VariableDebtAddress: derived(0xa3),
		Config:              cfg,
	}
}

func TestProtocolService_Snapshot(t *testing.T) {
	daiReserve := activeReserve(testDAI, 18, 1)
	usdcReserve := activeReserve(testUSDC, 6, 2)
	pool := &stubPool{reserves: map[common.Address]domain.ReserveData{
		testDAI:  daiReserve,
		testUSDC: usdcReserve,
	}}
	balances := stubBalances{
		daiReserve.ATokenAddress:        {testUser: "100000000000000000000000"},
		usdcReserve.StableDebtAddress:   {testUser: "30000000000"},
		usdcReserve.VariableDebtAddress: {testUser: "60000000000"},
	}

	svc := NewProtocolService(pool, balances, logger.New(io.Discard, logger.LevelError, "test", nil))
	position, err := svc.Snapshot(context.Background(), testUser, testDAI, testUSDC)
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}

	// Debt sums the stable and variable receipts.
	if !position.Debt.Eq(uint256.MustFromDecimal("90000000000")) {
		t.Errorf("Debt = %s, want 90000e6", position.Debt)
	}
	if !position.Collateral.Eq(uint256.MustFromDecimal("100000000000000000000000")) {
		t.Errorf("Collateral = %s, want 100000e18", position.Collateral)
	}
	if position.DebtDecimals != 6 {
		t.Errorf("DebtDecimals = %d, want 6", position.DebtDecimals)
	}
	if position.CollateralDecimals != 18 {
		t.Errorf("CollateralDecimals = %d, want 18", position.CollateralDecimals)
	}
	if !position.HasDebt() || !position.HasCollateral() {
		t.Error("position should report both debt and collateral")
	}
}

func TestProtocolService_SnapshotRejectsInactiveReserve(t *testing.T) {
	daiReserve := activeReserve(testDAI, 18, 1)
	inactive := activeReserve(testUSDC, 6, 2)
	inactive.Config.SetActive(false)
	pool := &stubPool{reserves: map[common.Address]domain.ReserveData{
		testDAI:  daiReserve,
		testUSDC: inactive,
	}}

	svc := NewProtocolService(pool, stubBalances{}, logger.New(io.Discard, logger.LevelError, "test", nil))
	_, err := svc.Snapshot(context.Background(), testUser, testDAI, testUSDC)
	if apperror.GetCode(err) != apperror.CodeReserveInactive {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeReserveInactive)
	}
}

func TestProtocolService_UserReserves(t *testing.T) {
	cfg := domain.NewUserConfig(nil)
	_ = cfg.SetUsingAsCollateral(0, true)
	_ = cfg.SetBorrowing(1, true)

	pool := &stubPool{
		userCfg: cfg,
		list:    []common.Address{testDAI, testUSDC},
	}
	svc := NewProtocolService(pool, stubBalances{}, logger.New(io.Discard, logger.LevelError, "test", nil))

	flags, err := svc.UserReserves(context.Background(), testUser)
	if err != nil {
		t.Fatalf("UserReserves error: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("len(flags) = %d, want 2", len(flags))
	}
	if flags[0].Asset != testDAI || !flags[0].AsCollateral || flags[0].Borrowing {
		t.Errorf("flags[0] = %+v, want DAI collateral only", flags[0])
	}
	if flags[1].Asset != testUSDC || !flags[1].Borrowing || flags[1].AsCollateral {
		t.Errorf("flags[1] = %+v, want USDC borrowing only", flags[1])
	}
}

func TestProtocolService_UserReservesEmptyConfig(t *testing.T) {
	pool := &stubPool{userCfg: domain.NewUserConfig(nil), list: []common.Address{testDAI}}
	svc := NewProtocolService(pool, stubBalances{}, logger.New(io.Discard, logger.LevelError, "test", nil))

	flags, err := svc.UserReserves(context.Background(), testUser)
	if err != nil {
		t.Fatalf("UserReserves error: %v", err)
	}
	if flags != nil {
		t.Errorf("flags = %v, want nil for empty configuration", flags)
	}
}
