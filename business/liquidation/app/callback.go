package app

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/0xarb/flash-liquidator/business/liquidation/domain"
	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	marketDomain "github.com/0xarb/flash-liquidator/business/market/domain"
	protocolApp "github.com/0xarb/flash-liquidator/business/protocol/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
	"github.com/0xarb/flash-liquidator/internal/logger"
)

// CallbackHandler is the continuation the flash pair invokes mid-swap. It
// swaps part of the borrowed leg into the debt asset, performs the
// liquidation, and forwards the seized collateral back to the flash pair so
// its fee-adjusted invariant holds. Any failure propagates and aborts the
// whole atomic unit.
type CallbackHandler struct {
	self            common.Address
	user            common.Address
	collateralAsset common.Address
	debtAsset       common.Address
	borrowAsset     common.Address

	pool    protocolApp.LendingPool
	factory marketApp.PairFactory
	tokens  TokenSource
	logger  logger.LoggerInterface

	// armed while the orchestrator's swap is in flight; the continuation is
	// callable only from the market collaborator mid-swap.
	mu       sync.Mutex
	expected common.Address // flash pair allowed to call back

	// captured for the outcome report
	lastRepaid *uint256.Int
	lastSeized *uint256.Int
}

// NewCallbackHandler creates the continuation for a fixed target.
func NewCallbackHandler(
	self, user, collateralAsset, debtAsset, borrowAsset common.Address,
	pool protocolApp.LendingPool,
	factory marketApp.PairFactory,
	tokens TokenSource,
	log logger.LoggerInterface,
) *CallbackHandler {
	return &CallbackHandler{
		self:            self,
		user:            user,
		collateralAsset: collateralAsset,
		debtAsset:       debtAsset,
		borrowAsset:     borrowAsset,
		pool:            pool,
		factory:         factory,
		tokens:          tokens,
		logger:          log,
	}
}

// Address implements marketApp.SwapRecipient.
func (h *CallbackHandler) Address() common.Address {
	return h.self
}

// arm marks the flash pair whose swap is allowed to re-enter.
func (h *CallbackHandler) arm(pair common.Address) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expected = pair
}

// disarm clears the armed pair after the outer swap returns.
func (h *CallbackHandler) disarm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.expected = common.Address{}
}

// repaidAndSeized reports the amounts captured during the last callback.
func (h *CallbackHandler) repaidAndSeized() (*uint256.Int, *uint256.Int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastRepaid, h.lastSeized
}

// OnSwapCallback implements marketApp.SwapRecipient. The pair has already
// credited the borrowed amount; by the time this returns the pair must hold
// enough value to satisfy its constant-product invariant.
func (h *CallbackHandler) OnSwapCallback(ctx context.Context, sender common.Address, amount0, amount1 *uint256.Int, payload []byte) error {
	h.mu.Lock()
	flashPairAddr := h.expected
	h.mu.Unlock()
	if flashPairAddr == (common.Address{}) {
		return apperror.Validation(apperror.CodeInvalidState, "callback outside an active swap")
	}
	if sender != h.self {
		return apperror.Validation(apperror.CodeInvalidState, "callback for a foreign swap")
	}

	delivered := amount0
	if delivered == nil || delivered.IsZero() {
		delivered = amount1
	}
	if delivered == nil || delivered.IsZero() {
		return apperror.Validation(apperror.CodeBorrowMismatch, "no borrowed amount delivered")
	}

	borrowToken := h.tokens.Token(h.borrowAsset)
	balance, err := borrowToken.BalanceOf(ctx, h.self)
	if err != nil {
		return err
	}
	if !balance.Eq(delivered) {
		return apperror.Validation(apperror.CodeBorrowMismatch, "delivered amount does not match balance")
	}

	repayTarget, err := domain.DecodePayload(payload)
	if err != nil {
		return err
	}

	h.logger.Debug(ctx, "flash borrow received",
		"delivered", delivered.String(),
		"repay_target", repayTarget.String(),
	)

	// Obtain the repay target in the debt asset. When the borrowed leg is
	// already the debt asset there is nothing to convert.
	if h.borrowAsset != h.debtAsset {
		if err := h.swapForRepayTarget(ctx, repayTarget); err != nil {
			return err
		}
	}

	// The pool clamps debtToCover to the outstanding debt and the
	// close-factor bound, so offer the full representable amount.
	repaid, seized, err := h.pool.LiquidationCall(ctx, h.collateralAsset, h.debtAsset, h.user,
		new(uint256.Int).SetAllOne(), false)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.lastRepaid = repaid
	h.lastSeized = seized
	h.mu.Unlock()

	h.logger.Info(ctx, "liquidation executed",
		"repaid", repaid.String(),
		"seized", seized.String(),
	)

	// Forward the collateral proceeds to the flash pair. The pair itself
	// verifies that the value returned covers the borrow plus fee.
	collateralToken := h.tokens.Token(h.collateralAsset)
	proceeds, err := collateralToken.BalanceOf(ctx, h.self)
	if err != nil {
		return err
	}
	if proceeds.IsZero() {
		return apperror.Validation(apperror.CodeTransferFailed, "no collateral proceeds to forward")
	}
	if err := collateralToken.Transfer(ctx, h.self, flashPairAddr, proceeds); err != nil {
		return apperror.Wrap(err, apperror.CodeTransferFailed, "forwarding collateral to flash pair")
	}

	return nil
}

// swapForRepayTarget converts exactly enough of the borrowed leg into the
// debt asset to cover the repay target, quoting against fresh reserves.
func (h *CallbackHandler) swapForRepayTarget(ctx context.Context, repayTarget *uint256.Int) error {
	pair, err := h.factory.GetPair(ctx, h.borrowAsset, h.debtAsset)
	if err != nil {
		return err
	}

	reserve0, reserve1, _, err := pair.GetReserves(ctx)
	if err != nil {
		return err
	}

	reserveIn, reserveOut := reserve0, reserve1
	amount0Out, amount1Out := uint256.NewInt(0), repayTarget
	if pair.Token0() == h.debtAsset {
		reserveIn, reserveOut = reserve1, reserve0
		amount0Out, amount1Out = repayTarget, uint256.NewInt(0)
	}

	needed, err := marketDomain.QuoteIn(repayTarget, reserveIn, reserveOut)
	if err != nil {
		return err
	}

	borrowToken := h.tokens.Token(h.borrowAsset)
	if err := borrowToken.Transfer(ctx, h.self, pair.Address(), needed); err != nil {
		return apperror.Wrap(err, apperror.CodeTransferFailed, "paying swap input")
	}

	return pair.Swap(ctx, amount0Out, amount1Out, &plainRecipient{addr: h.self}, nil)
}

// plainRecipient receives swap output without a continuation.
type plainRecipient struct {
	addr common.Address
}

func (r *plainRecipient) Address() common.Address {
	return r.addr
}

func (r *plainRecipient) OnSwapCallback(context.Context, common.Address, *uint256.Int, *uint256.Int, []byte) error {
	return apperror.Validation(apperror.CodeInvalidState, "unexpected callback on plain swap")
}
