package sim

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	marketApp "github.com/0xarb/flash-liquidator/business/market/app"
	"github.com/0xarb/flash-liquidator/internal/apperror"
)

var (
	kFeeScale    = uint256.NewInt(1000)
	kFeePerMille = uint256.NewInt(3)
)

// Pair is a ledger-backed constant-product pool. Reserves are cached from
// the last finalized swap, the way the real pair syncs them, so input can be
// paid in before Swap and still count as input. Output is credited before
// the callback runs; finalization fails unless the fee-adjusted invariant
// holds afterwards.
type Pair struct {
	ledger  *Ledger
	address common.Address
	token0  common.Address
	token1  common.Address

	mu         sync.Mutex
	reserve0   *uint256.Int
	reserve1   *uint256.Int
	lastUpdate uint32
}

// NewPair creates a pair with empty reserves; tokens are stored in
// canonical order.
func NewPair(ledger *Ledger, address, tokenA, tokenB common.Address) *Pair {
	token0, token1 := marketApp.SortTokens(tokenA, tokenB)
	return &Pair{
		ledger:   ledger,
		address:  address,
		token0:   token0,
		token1:   token1,
		reserve0: uint256.NewInt(0),
		reserve1: uint256.NewInt(0),
	}
}

func (p *Pair) Address() common.Address {
	return p.address
}

func (p *Pair) Token0() common.Address {
	return p.token0
}

func (p *Pair) Token1() common.Address {
	return p.token1
}

// SetReserves overwrites the cached reserves and backs them with ledger
// balances. Used while seeding.
func (p *Pair) SetReserves(reserve0, reserve1 *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserve0 = new(uint256.Int).Set(reserve0)
	p.reserve1 = new(uint256.Int).Set(reserve1)
	p.lastUpdate = uint32(time.Now().Unix())
	p.ledger.SetBalance(p.token0, p.address, reserve0)
	p.ledger.SetBalance(p.token1, p.address, reserve1)
}

func (p *Pair) GetReserves(context.Context) (*uint256.Int, *uint256.Int, uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.reserve0), new(uint256.Int).Set(p.reserve1), p.lastUpdate, nil
}

// snapshotReserves captures the cached reserves for a later restore.
func (p *Pair) snapshotReserves() [2]*uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return [2]*uint256.Int{
		new(uint256.Int).Set(p.reserve0),
		new(uint256.Int).Set(p.reserve1),
	}
}

// restoreReserves reverts the cached reserves.
func (p *Pair) restoreReserves(snap [2]*uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserve0 = snap[0]
	p.reserve1 = snap[1]
}

// Swap delivers the requested outputs, runs the recipient's continuation
// when payload is non-empty, and then enforces
// (balance0*1000 - in0*3) * (balance1*1000 - in1*3) >= reserve0*reserve1*1000^2.
// On success the cached reserves sync to the pair's balances.
func (p *Pair) Swap(ctx context.Context, amount0Out, amount1Out *uint256.Int, to marketApp.SwapRecipient, payload []byte) error {
	if amount0Out == nil {
		amount0Out = uint256.NewInt(0)
	}
	if amount1Out == nil {
		amount1Out = uint256.NewInt(0)
	}
	if amount0Out.IsZero() && amount1Out.IsZero() {
		return apperror.Validation(apperror.CodeInsufficientOutput, "both output amounts are zero")
	}

	reserve0, reserve1, _, err := p.GetReserves(ctx)
	if err != nil {
		return err
	}
	if !amount0Out.Lt(reserve0) || !amount1Out.Lt(reserve1) {
		return apperror.Validation(apperror.CodeInsufficientLiquidity, "output exceeds reserves")
	}

	// Optimistic transfer, then the continuation.
	if !amount0Out.IsZero() {
		if err := p.ledger.Transfer(p.token0, p.address, to.Address(), amount0Out); err != nil {
			return err
		}
	}
	if !amount1Out.IsZero() {
		if err := p.ledger.Transfer(p.token1, p.address, to.Address(), amount1Out); err != nil {
			return err
		}
	}
	if len(payload) > 0 {
		if err := to.OnSwapCallback(ctx, to.Address(), amount0Out, amount1Out, payload); err != nil {
			return err
		}
	}

	balance0 := p.ledger.Balance(p.token0, p.address)
	balance1 := p.ledger.Balance(p.token1, p.address)

	amount0In := amountIn(balance0, reserve0, amount0Out)
	amount1In := amountIn(balance1, reserve1, amount1Out)
	if amount0In.IsZero() && amount1In.IsZero() {
		return apperror.Validation(apperror.CodeInsufficientInput, "nothing paid into the pair")
	}

	adjusted0, err := feeAdjusted(balance0, amount0In)
	if err != nil {
		return err
	}
	adjusted1, err := feeAdjusted(balance1, amount1In)
	if err != nil {
		return err
	}
	left, err := mulCheck(adjusted0, adjusted1)
	if err != nil {
		return err
	}
	right, err := mulCheck(reserve0, reserve1)
	if err != nil {
		return err
	}
	right, err = mulCheck(right, new(uint256.Int).Mul(kFeeScale, kFeeScale))
	if err != nil {
		return err
	}
	if left.Lt(right) {
		return apperror.Validation(apperror.CodeInsufficientInput, "constant-product invariant violated")
	}

	p.mu.Lock()
	p.reserve0 = balance0
	p.reserve1 = balance1
	p.lastUpdate = uint32(time.Now().Unix())
	p.mu.Unlock()
	return nil
}

// amountIn recovers the paid-in amount from the balance delta.
func amountIn(balance, reserve, out *uint256.Int) *uint256.Int {
	floor := new(uint256.Int).Sub(reserve, out)
	if balance.Gt(floor) {
		return new(uint256.Int).Sub(balance, floor)
	}
	return uint256.NewInt(0)
}

// feeAdjusted returns balance*1000 - in*3.
func feeAdjusted(balance, in *uint256.Int) (*uint256.Int, error) {
	scaled, err := mulCheck(balance, kFeeScale)
	if err != nil {
		return nil, err
	}
	fee := new(uint256.Int).Mul(in, kFeePerMille)
	if scaled.Lt(fee) {
		return nil, apperror.Validation(apperror.CodeInsufficientInput, "fee exceeds balance")
	}
	return scaled.Sub(scaled, fee), nil
}
