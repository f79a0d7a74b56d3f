package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	marketDomain "github.com/0xarb/flash-liquidator/business/market/domain"
	protocolApp "github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// Target identifies one liquidation opportunity: the account to liquidate
// and the assets involved.
type Target struct {
	User            common.Address
	CollateralAsset common.Address
	DebtAsset       common.Address
}

// OrchestratorConfig carries run-wide parameters that do not change per
// target.
type OrchestratorConfig struct {
	// Executor is the account that borrows, liquidates and repays.
	Executor common.Address
	// Initiator receives the settled profit.
	Initiator common.Address
	// BorrowAsset is the asset taken from the flash pair.
	BorrowAsset common.Address
	// CloseFactorBps caps the repayable share of the debt, in basis points.
	CloseFactorBps uint64
}

// Orchestrator drives a full liquidation attempt: health gate, sizing,
// flash borrow, liquidation via the continuation, repayment and profit
// settlement. The whole effect phase runs inside an ExecutionScope so a
// failure at any step leaves every balance untouched.
type Orchestrator struct {
	cfg      OrchestratorConfig
	pool     protocolApp.LendingPool
	oracle   protocolApp.PriceOracle
	protocol *protocolApp.ProtocolService
	factory  marketApp.PairFactory
	tokens   TokenSource
	scope    ExecutionScope
	settler  *ProfitSettler
	logger   logger.LoggerInterface
}

// NewOrchestrator wires an orchestrator over its collaborators.
func NewOrchestrator(
	cfg OrchestratorConfig,
	pool protocolApp.LendingPool,
	oracle protocolApp.PriceOracle,
	protocol *protocolApp.ProtocolService,
	factory marketApp.PairFactory,
	tokens TokenSource,
	scope ExecutionScope,
	settler *ProfitSettler,
	log logger.LoggerInterface,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		pool:     pool,
		oracle:   oracle,
		protocol: protocol,
		factory:  factory,
		tokens:   tokens,
		scope:    scope,
		settler:  settler,
		logger:   log,
	}
}

// Liquidate attempts to liquidate the target and reports the outcome. The
// returned error mirrors Outcome.Err for callers that prefer error flow.
func (o *Orchestrator) Liquidate(ctx context.Context, target Target) (*domain.Outcome, error) {
	outcome := &domain.Outcome{
		State:     domain.StateIdle,
		StartedAt: time.Now(),
	}
	defer func() {
		outcome.Duration = time.Since(outcome.StartedAt)
	}()

	if err := o.run(ctx, target, outcome); err != nil {
		outcome.Err = err
		outcome.State = domain.StateAborted
		o.logger.Warn(ctx, "liquidation aborted",
			"user", target.User.Hex(),
			"state", string(outcome.State),
			"error", err.Error(),
		)
		return outcome, err
	}

	outcome.State = domain.StateCompleted
	o.logger.Info(ctx, "liquidation completed",
		"user", target.User.Hex(),
		"repaid", outcome.Repaid.String(),
		"seized", outcome.Seized.String(),
		"profit", outcome.Profit.String(),
	)
	return outcome, nil
}

func (o *Orchestrator) run(ctx context.Context, target Target, outcome *domain.Outcome) error {
	advance := func(next domain.State) error {
		if !outcome.State.CanTransition(next) {
			return apperror.Internal(apperror.CodeInvalidState, "invalid transition "+string(outcome.State)+" to "+string(next), nil)
		}
		outcome.State = next
		return nil
	}

	// Health gate before any market interaction.
	account, err := o.pool.GetUserAccountData(ctx, target.User)
	if err != nil {
		return err
	}
	if !account.IsLiquidatable() {
		return apperror.Validation(apperror.CodeNotLiquidatable, "health factor at or above one")
	}
	if err := advance(domain.StateSizing); err != nil {
		return err
	}

	position, err := o.protocol.Snapshot(ctx, target.User, target.CollateralAsset, target.DebtAsset)
	if err != nil {
		return err
	}

	collateralData, err := o.pool.GetReserveData(ctx, target.CollateralAsset)
	if err != nil {
		return err
	}
	debtPrice, err := o.oracle.GetAssetPrice(ctx, target.DebtAsset)
	if err != nil {
		return err
	}
	collateralPrice, err := o.oracle.GetAssetPrice(ctx, target.CollateralAsset)
	if err != nil {
		return err
	}

	plan, err := Size(SizerInput{
		DebtAmount:          position.Debt,
		CollateralAmount:    position.Collateral,
		DebtDecimals:        position.DebtDecimals,
		CollateralDecimals:  position.CollateralDecimals,
		DebtPrice:           debtPrice,
		CollateralPrice:     collateralPrice,
		CloseFactorBps:      o.cfg.CloseFactorBps,
		LiquidationBonusBps: collateralData.Config.LiquidationBonus(),
	})
	if err != nil {
		return err
	}
	outcome.Plan = plan
	if plan.MaxRepayAmount.IsZero() || plan.MaxCollateralAmount.IsZero() {
		return apperror.Validation(apperror.CodeNotLiquidatable, "position too small to size")
	}

	o.logger.Debug(ctx, "liquidation sized",
		"user", target.User.Hex(),
		"max_repay", plan.MaxRepayAmount.String(),
		"max_collateral", plan.MaxCollateralAmount.String(),
		"seizes_all", plan.SeizesAllCollateral(position.Collateral),
	)

	// The flash pair lends the borrow asset against the collateral we will
	// hand back. The borrowable amount is whatever all planned collateral
	// buys at the pair's current reserves.
	flashPair, err := o.factory.GetPair(ctx, target.CollateralAsset, o.cfg.BorrowAsset)
	if err != nil {
		return err
	}
	reserve0, reserve1, _, err := flashPair.GetReserves(ctx)
	if err != nil {
		return err
	}
	collateralReserve, borrowReserve := reserve0, reserve1
	if flashPair.Token0() == o.cfg.BorrowAsset {
		collateralReserve, borrowReserve = reserve1, reserve0
	}
	amountToBorrow, err := marketDomain.QuoteOut(plan.MaxCollateralAmount, collateralReserve, borrowReserve)
	if err != nil {
		return err
	}
	if err := advance(domain.StateBorrowRequested); err != nil {
		return err
	}

	// One extra unit on the repay target absorbs rounding in the
	// intermediate swap.
	repayTarget := new(uint256.Int).AddUint64(plan.MaxRepayAmount, 1)
	payload := domain.EncodePayload(repayTarget)

	handler := NewCallbackHandler(
		o.cfg.Executor, target.User,
		target.CollateralAsset, target.DebtAsset, o.cfg.BorrowAsset,
		o.pool, o.factory, o.tokens, o.logger,
	)

	amount0Out, amount1Out := uint256.NewInt(0), amountToBorrow
	if flashPair.Token0() == o.cfg.BorrowAsset {
		amount0Out, amount1Out = amountToBorrow, uint256.NewInt(0)
	}

	if err := advance(domain.StateAwaitingCallback); err != nil {
		return err
	}

	err = o.scope.Run(ctx, func(ctx context.Context) error {
		handler.arm(flashPair.Address())
		defer handler.disarm()

		if err := flashPair.Swap(ctx, amount0Out, amount1Out, handler, payload); err != nil {
			return err
		}

		profit, err := o.settler.Settle(ctx, o.cfg.Executor, o.cfg.Initiator)
		if err != nil {
			return err
		}
		outcome.Profit = profit
		return nil
	})
	if err != nil {
		return err
	}
	if err := advance(domain.StateRepaid); err != nil {
		return err
	}

	outcome.Borrowed = amountToBorrow
	outcome.Repaid, outcome.Seized = handler.repaidAndSeized()
	if outcome.Repaid == nil || outcome.Seized == nil {
		return apperror.Internal(apperror.CodeInvalidState, "swap returned without invoking the continuation", nil)
	}
	return nil
}
