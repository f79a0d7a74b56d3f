package infra

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	liquidationApp "github.com/0xarb/flash-liquidator/business/liquidation/app"
	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	protocolApp "github.com/0xarb/flash-liquidator/business/protocol/app"
	protocolDomain "github.com/0xarb/flash-liquidator/business/protocol/domain"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

var (
	runDAI      = common.HexToAddress("0x000000000000000000000000000000000000a001")
	runUSDC     = common.HexToAddress("0x000000000000000000000000000000000000a002")
	runADAI     = common.HexToAddress("0x000000000000000000000000000000000000b001")
	runSUSDC    = common.HexToAddress("0x000000000000000000000000000000000000b002")
	runVUSDC    = common.HexToAddress("0x000000000000000000000000000000000000b003")
	runSDAI     = common.HexToAddress("0x000000000000000000000000000000000000b004")
	runVDAI     = common.HexToAddress("0x000000000000000000000000000000000000b005")
	runAUSDC    = common.HexToAddress("0x000000000000000000000000000000000000b006")
	runBorrower = common.HexToAddress("0x000000000000000000000000000000000000c001")
	runExecutor = common.HexToAddress("0x000000000000000000000000000000000000c002")
	runOrigin   = common.HexToAddress("0x000000000000000000000000000000000000c003")
	runPool     = common.HexToAddress("0x000000000000000000000000000000000000c004")
)

func big(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

// stubChainPool serves reserve metadata the way the live pool reader does,
// counting the walk reads so tests can assert the pre-sizing phase ran.
type stubChainPool struct {
	reserves map[common.Address]protocolDomain.ReserveData
	list     []common.Address
	userCfg  protocolDomain.UserConfig

	cfgReads  atomic.Int64
	listReads atomic.Int64
}

func (p *stubChainPool) GetUserAccountData(context.Context, common.Address) (protocolDomain.AccountData, error) {
	return protocolDomain.AccountData{}, nil
}

func (p *stubChainPool) GetReserveData(_ context.Context, asset common.Address) (protocolDomain.ReserveData, error) {
	data, ok := p.reserves[asset]
	if !ok {
		return protocolDomain.ReserveData{}, apperror.Validation(apperror.CodeReserveInactive, "unknown reserve "+asset.Hex())
	}
	return data, nil
}

func (p *stubChainPool) GetReservesList(context.Context) ([]common.Address, error) {
	p.listReads.Add(1)
	return p.list, nil
}

func (p *stubChainPool) GetUserConfiguration(context.Context, common.Address) (protocolDomain.UserConfig, error) {
	p.cfgReads.Add(1)
	return p.userCfg, nil
}

func (p *stubChainPool) GetConfiguration(_ context.Context, asset common.Address) (protocolDomain.ReserveConfig, error) {
	return p.reserves[asset].Config, nil
}

type stubChainOracle map[common.Address]*uint256.Int

func (o stubChainOracle) GetAssetPrice(_ context.Context, asset common.Address) (*uint256.Int, error) {
	price, ok := o[asset]
	if !ok {
		return nil, apperror.Validation(apperror.CodeInvalidPrice, "no price for "+asset.Hex())
	}
	return price.Clone(), nil
}

type stubChainBalances map[common.Address]map[common.Address]*uint256.Int

func (b stubChainBalances) BalanceOf(_ context.Context, token, account common.Address) (*uint256.Int, error) {
	if holders, ok := b[token]; ok {
		if bal, ok := holders[account]; ok {
			return bal.Clone(), nil
		}
	}
	return uint256.NewInt(0), nil
}

type stubPairStates map[[2]common.Address]marketApp.PairState

func (s stubPairStates) PairState(_ context.Context, assetA, assetB common.Address) (marketApp.PairState, error) {
	token0, token1 := marketApp.SortTokens(assetA, assetB)
	state, ok := s[[2]common.Address{token0, token1}]
	if !ok {
		return marketApp.PairState{}, apperror.Validation(apperror.CodePairNotFound, "no pair state")
	}
	return state, nil
}

type captureReporter struct {
	outcomes []*domain.Outcome
}

func (r *captureReporter) Start(context.Context) error    { return nil }
func (r *captureReporter) Report(outcome *domain.Outcome) { r.outcomes = append(r.outcomes, outcome) }
func (r *captureReporter) Stop() error                    { return nil }

func runReserveConfig(decimals uint8, ltv, threshold, bonus uint64) protocolDomain.ReserveConfig {
	cfg := protocolDomain.NewReserveConfig(uint256.NewInt(0))
	cfg.SetLTV(ltv)
	cfg.SetLiquidationThreshold(threshold)
	cfg.SetLiquidationBonus(bonus)
	cfg.SetDecimals(decimals)
	cfg.SetActive(true)
	cfg.SetBorrowingEnabled(true)
	return cfg
}

// newRunnerFixture builds a runner over chain stubs mirroring a liquidatable
// DAI-collateral / USDC-debt position with a deep DAI/USDC flash pair.
func newRunnerFixture(t *testing.T) (*Runner, *stubChainPool, *captureReporter) {
	t.Helper()

	userCfg := protocolDomain.NewUserConfig(uint256.NewInt(0))
	if err := userCfg.SetUsingAsCollateral(0, true); err != nil {
		t.Fatalf("SetUsingAsCollateral: %v", err)
	}
	if err := userCfg.SetBorrowing(1, true); err != nil {
		t.Fatalf("SetBorrowing: %v", err)
	}

	pool := &stubChainPool{
		reserves: map[common.Address]protocolDomain.ReserveData{
			runDAI: {
				Asset:               runDAI,
				ATokenAddress:       runADAI,
				StableDebtAddress:   runSDAI,
				VariableDebtAddress: runVDAI,
				Config:              runReserveConfig(18, 7500, 8000, 10500),
			},
			runUSDC: {
				Asset:               runUSDC,
				ATokenAddress:       runAUSDC,
				StableDebtAddress:   runSUSDC,
				VariableDebtAddress: runVUSDC,
				Config:              runReserveConfig(6, 8000, 8500, 10450),
			},
		},
		list:    []common.Address{runDAI, runUSDC},
		userCfg: userCfg,
	}

	oracle := stubChainOracle{
		runDAI:  big("500000000000000"),
		runUSDC: big("500000000000000"),
	}

	balances := stubChainBalances{
		runADAI:  {runBorrower: big("100000000000000000000000")}, // 100000 DAI supplied
		runVUSDC: {runBorrower: big("90000000000")},              // 90000 USDC borrowed
		runDAI:   {runADAI: big("200000000000000000000000")},     // pool inventory
	}

	token0, token1 := marketApp.SortTokens(runDAI, runUSDC)
	state := marketApp.PairState{Token0: token0, Token1: token1}
	if token0 == runDAI {
		state.Reserve0 = big("10000000000000000000000000") // 10M DAI
		state.Reserve1 = big("10000000000000")             // 10M USDC
	} else {
		state.Reserve0 = big("10000000000000")
		state.Reserve1 = big("10000000000000000000000000")
	}
	pairs := stubPairStates{[2]common.Address{token0, token1}: state}

	reporter := &captureReporter{}
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	runner, err := NewRunner(
		RunnerConfig{
			Target: liquidationApp.Target{
				User:            runBorrower,
				CollateralAsset: runDAI,
				DebtAsset:       runUSDC,
			},
			Executor:       runExecutor,
			Initiator:      runOrigin,
			BorrowAsset:    runUSDC,
			CloseFactorBps: 5000,
			SimPoolAddress: runPool,
		},
		pool,
		protocolApp.NewProtocolService(pool, balances, log),
		oracle,
		balances,
		pairs,
		reporter,
		log,
	)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner, pool, reporter
}

func TestRunner_OperateSettlesConfiguredTarget(t *testing.T) {
	runner, _, reporter := newRunnerFixture(t)

	outcome, err := runner.Operate(context.Background())
	if err != nil {
		t.Fatalf("Operate error: %v", err)
	}
	if outcome.State != domain.StateCompleted {
		t.Fatalf("State = %s, want %s", outcome.State, domain.StateCompleted)
	}

	// Close factor 5000 on 90000 debt, bonus 10500 on 1:1 prices.
	if !outcome.Repaid.Eq(big("45000000000")) {
		t.Errorf("Repaid = %s, want 45000000000", outcome.Repaid)
	}
	if !outcome.Seized.Eq(big("47250000000000000000000")) {
		t.Errorf("Seized = %s, want 47250000000000000000000", outcome.Seized)
	}
	if outcome.Profit == nil || outcome.Profit.IsZero() {
		t.Errorf("Profit = %v, want positive", outcome.Profit)
	}
	if outcome.Borrowed == nil || !outcome.Borrowed.Gt(outcome.Repaid) {
		t.Errorf("Borrowed = %v, want above Repaid %s", outcome.Borrowed, outcome.Repaid)
	}

	if len(reporter.outcomes) != 1 {
		t.Fatalf("reported outcomes = %d, want 1", len(reporter.outcomes))
	}
	if reporter.outcomes[0] != outcome {
		t.Error("reporter saw a different outcome than the caller")
	}
}

func TestRunner_WalksUserReservesBeforeSizing(t *testing.T) {
	runner, pool, _ := newRunnerFixture(t)

	if _, err := runner.Operate(context.Background()); err != nil {
		t.Fatalf("Operate error: %v", err)
	}
	if got := pool.cfgReads.Load(); got == 0 {
		t.Error("user configuration never read before sizing")
	}
	if got := pool.listReads.Load(); got == 0 {
		t.Error("reserves list never read before sizing")
	}
}
